package storage

import (
	"net/url"
	"path"
	"strings"
)

// PublicID extracts the asset public id from an image URL: the last path
// segment without anything after its first dot.
//
//	https://res.example.com/img/upload/v17/wedding/abc123.jpg -> abc123
func PublicID(imageURL string) (string, error) {
	raw := strings.TrimSpace(imageURL)
	if raw == "" {
		return "", ErrInvalidPublicID
	}

	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}

	p = strings.TrimRight(p, "/")
	name := path.Base(p)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}

	if name == "" || name == "." || name == "/" {
		return "", ErrInvalidPublicID
	}

	return name, nil
}
