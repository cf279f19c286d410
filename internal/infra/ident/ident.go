// Package ident generates prefixed opaque identifiers, e.g. "device_…" and
// "session_…". Ids sort roughly by creation time and secure ids carry enough
// entropy to serve as bearer tokens.
package ident

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"strings"
	"time"

	"puffsocial/internal/domain/service"
)

// Custom epoch keeps the timestamp component compact.
const epochMillis = int64(1676953708489)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const (
	randomBytes       = 8
	secureRandomBytes = 24
)

type generator struct{}

// NewGenerator creates the process-wide id generator.
func NewGenerator() service.IDGenerator {
	return &generator{}
}

// Gen returns a new prefixed id, e.g. "device_mfyq3zjnguyq".
func (g *generator) Gen(prefix string) string {
	return prefix + "_" + g.tail(randomBytes)
}

// GenSecure returns a prefixed id with enough entropy for bearer tokens and
// state nonces.
func (g *generator) GenSecure(prefix string) string {
	return prefix + "_" + g.tail(secureRandomBytes)
}

func (g *generator) tail(entropy int) string {
	buf := make([]byte, 8+entropy)
	binary.BigEndian.PutUint64(buf[:8], uint64(time.Now().UnixMilli()-epochMillis))

	// rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf[8:])

	return strings.ToLower(encoding.EncodeToString(buf))
}
