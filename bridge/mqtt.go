package bridge

import (
	"net/url"
	"strings"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

const (
	// TraceTopic carries relayed trace chunks, below the topic prefix.
	TraceTopic = "trace"
	// CommandTopic carries host commands, below the topic prefix.
	CommandTopic = "cmd"

	clientIDApp = "svbridge"
)

// ClientOptionsFromURL creates ClientOptions from a URL like
// mqtt://user:pw@host:1883/prefix/. The path becomes the topic prefix.
// Without a client-id query parameter the client id is derived from the
// machine id.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}

	clientID := u.Query().Get("client-id")
	if clientID == "" {
		if id, err := machineid.ProtectedID(clientIDApp); err == nil {
			clientID = clientIDApp + "-" + id[:12]
		} else {
			glog.Warningf("machine id: %v", err)
		}
	}
	if clientID != "" {
		opts.SetClientID(clientID)
	}

	return opts, topicPrefix, nil
}

// MQTTSink publishes trace chunks to <prefix>trace and forwards payloads
// received on <prefix>cmd as host commands.
type MQTTSink struct {
	Client      paho.Client
	TopicPrefix string
	OnCommand   CommandFunc
}

// NewMQTTSink creates an unconnected sink for brokerURL.
func NewMQTTSink(brokerURL string, onCommand CommandFunc) (*MQTTSink, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	m := &MQTTSink{TopicPrefix: prefix, OnCommand: onCommand}
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		glog.Warningf("mqtt connection lost: %v", err)
	})
	m.Client = paho.NewClient(opts)
	return m, nil
}

// Connect connects to the broker and waits for the result.
func (m *MQTTSink) Connect() error {
	token := m.Client.Connect()
	token.Wait()
	return token.Error()
}

func (m *MQTTSink) onConnect(c paho.Client) {
	glog.Info("mqtt connected")
	topic := m.TopicPrefix + CommandTopic
	glog.V(2).Infof("SUB %q", topic)
	c.Subscribe(topic, 0, m.dispatch)
}

func (m *MQTTSink) dispatch(c paho.Client, msg paho.Message) {
	glog.V(2).Infof("RCV %q", msg.Topic())
	m.handleCommand(msg.Payload())
}

func (m *MQTTSink) handleCommand(payload []byte) {
	forwardCommands(m.OnCommand, payload)
}

// WriteTrace implements Sink. Publishing is asynchronous; p is copied.
func (m *MQTTSink) WriteTrace(p []byte) error {
	if !m.Client.IsConnected() {
		glog.V(2).Info("mqtt not connected, chunk dropped")
		return nil
	}
	payload := append([]byte(nil), p...)
	m.Client.Publish(m.TopicPrefix+TraceTopic, 0, false, payload)
	return nil
}

// Close implements Sink.
func (m *MQTTSink) Close() error {
	m.Client.Disconnect(250)
	return nil
}
