package email

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

const maxBody = 8 << 20

// htmlBody returns the largest text/html part of an RFC822 message, or the
// whole body when the message is not MIME.
func htmlBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	body, _ := io.ReadAll(io.LimitReader(msg.Body, maxBody))
	plain, html := textParts(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), body)
	if html != "" {
		return html
	}
	return plain
}

func textParts(contentType, cte string, body []byte) (plain, html string) {
	cte = strings.ToLower(strings.TrimSpace(cte))
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(decode(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if !strings.HasPrefix(mediaType, "multipart/") {
		s := string(decode(body, cte))
		if strings.HasPrefix(mediaType, "text/html") {
			return "", s
		}
		return s, ""
	}

	boundary := params["boundary"]
	if boundary == "" {
		return string(decode(body, cte)), ""
	}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		b, _ := io.ReadAll(io.LimitReader(p, maxBody))
		pl, ht := textParts(p.Header.Get("Content-Type"), p.Header.Get("Content-Transfer-Encoding"), b)
		if len(pl) > len(plain) {
			plain = pl
		}
		if len(ht) > len(html) {
			html = ht
		}
	}
	return plain, html
}

func decode(b []byte, cte string) []byte {
	var r io.Reader
	switch cte {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
	case "quoted-printable":
		r = quotedprintable.NewReader(bytes.NewReader(b))
	default:
		return b
	}
	out, err := io.ReadAll(io.LimitReader(r, maxBody))
	if err != nil && len(out) == 0 {
		return b
	}
	return out
}
