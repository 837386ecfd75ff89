package main

import (
	"github.com/abiosoft/ishell"

	"github.com/jangala-dev/tinygo-svuart/bridge"
	"github.com/jangala-dev/tinygo-svuart/sysview"
)

const sessionKey = "$session"

func newShell(session *bridge.Session) *ishell.Shell {
	sh := ishell.New()
	sh.Set(sessionKey, session)
	sh.SetPrompt("sv > ")
	for _, cmd := range shellCmds {
		sh.AddCmd(cmd)
	}
	return sh
}

func sessionFrom(c *ishell.Context) *bridge.Session {
	return c.Get(sessionKey).(*bridge.Session)
}

func sendCmd(cmd byte) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if err := sessionFrom(c).SendCommand(cmd); err != nil {
			c.Err(err)
			return
		}
		c.Println("OK")
	}
}

var shellCmds = []*ishell.Cmd{
	{Name: "start", Help: "start recording", Func: sendCmd(sysview.CmdStart)},
	{Name: "stop", Help: "stop recording", Func: sendCmd(sysview.CmdStop)},
	{Name: "systime", Help: "request the system time", Func: sendCmd(sysview.CmdGetSysTime)},
	{Name: "heartbeat", Aliases: []string{"hb"}, Help: "send a heartbeat", Func: sendCmd(sysview.CmdHeartbeat)},
	{
		Name: "status",
		Help: "show link counters",
		Func: func(c *ishell.Context) {
			s := sessionFrom(c)
			major, minor := s.TargetVersion()
			st := s.Stats()
			c.Printf("target SystemView %d.%d, %d bytes relayed, %d commands sent\n",
				major, minor, st.TraceBytes, st.Commands)
		},
	},
}
