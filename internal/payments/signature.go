package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Заголовок события: "t=<unix>,v1=<hex hmac-sha256>".
// Подписывается строка "<t>.<raw body>" общим секретом шлюза.

var errBadSignature = errors.New("bad webhook signature")

func parseSignatureHeader(header string) (ts int64, sig []byte, err error) {
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, errBadSignature
			}
		case "v1":
			sig, err = hex.DecodeString(v)
			if err != nil {
				return 0, nil, errBadSignature
			}
		}
	}
	if ts == 0 || len(sig) == 0 {
		return 0, nil, errBadSignature
	}
	return ts, sig, nil
}

// verifySignature проверяет подпись сырого payload до какого-либо разбора
// его содержимого. Сравнение — hmac.Equal (постоянное время); допускается
// сдвиг t= в пределах tolerance против replay старых событий.
func verifySignature(secret string, payload []byte, header string, tolerance time.Duration, now time.Time) error {
	ts, sig, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}
	if tolerance > 0 {
		at := time.Unix(ts, 0)
		if at.After(now.Add(tolerance)) || at.Before(now.Add(-tolerance)) {
			return errBadSignature
		}
	}

	m := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(m, "%d.", ts)
	m.Write(payload)
	if !hmac.Equal(sig, m.Sum(nil)) {
		return errBadSignature
	}
	return nil
}

// SignPayload — подпись для исходящих/тестовых событий (формат заголовка тот же).
func SignPayload(secret string, payload []byte, at time.Time) string {
	m := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(m, "%d.", at.Unix())
	m.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(m.Sum(nil)))
}
