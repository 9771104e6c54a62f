package session

import "math/rand"

// KeyDigits is the session key width: 6 ASCII digits.
const KeyDigits = 6

// randKey draws a uniform key in [100000, 999999]. Uniqueness is not
// the issuer's job: the advisory existence check and the database unique
// index on session_key handle collisions.
func randKey(intn func(int) int) string {
	n := 100000 + intn(900000)
	buf := [KeyDigits]byte{}
	for i := KeyDigits - 1; i >= 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[:])
}

func defaultIntn(n int) int { return rand.Intn(n) }
