// svuart/lpuart_baud.go

package svuart

// lpuartDivisors picks the oversampling ratio (4..32) and the 13-bit baud
// modulo with the smallest error at baud, the way the vendor driver does.
// BOTHEDGE sampling is required below an OSR of 8.
func lpuartDivisors(src, baud uint32) (osr, sbr uint32) {
	osr, sbr = 16, 1
	best := ^uint32(0)
	for o := uint32(4); o <= 32; o++ {
		s := (src*10/(baud*o) + 5) / 10
		if s == 0 {
			s = 1
		}
		if s > 0x1FFF {
			continue
		}
		calc := src / (o * s)
		diff := calc - baud
		if calc < baud {
			diff = baud - calc
		}
		if diff <= best {
			osr, sbr, best = o, s, diff
		}
	}
	return osr, sbr
}
