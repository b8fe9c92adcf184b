package pcap

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/flow"
)

// Protocols understood by [NewParser].
const (
	ProtoRaw    = "raw"
	ProtoRedis  = "redis"
	ProtoScribe = "scribe"
)

// DefaultScribeHost is the host that receives scribe traffic and forwards it
// to consumers.
const DefaultScribeHost = "mq-s2"

// Protocols lists the supported protocol names.
var Protocols = []string{ProtoRaw, ProtoRedis, ProtoScribe}

// Parser maps one packet to a draft edge. It reports false for packets that
// do not describe a flow, e.g. redis commands other than LPOP and RPUSH.
type Parser interface {
	Parse(ctx context.Context, p Packet) (flow.Draft, bool)
}

// NewParser returns the parser of proto. An empty proto selects raw.
// scribeHost is used by the scribe parser; empty means [DefaultScribeHost].
func NewParser(proto string, hosts HostResolver, scribeHost string) (Parser, error) {
	switch proto {
	case ProtoRaw, "":
		return &RawParser{Hosts: hosts}, nil
	case ProtoRedis:
		return &RedisParser{Hosts: hosts}, nil
	case ProtoScribe:
		if scribeHost == "" {
			scribeHost = DefaultScribeHost
		}
		return &ScribeParser{Hosts: hosts, ScribeHost: scribeHost}, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported protocol %q (use %s)", proto, strings.Join(Protocols, ", "))
	}
}

// Drafts parses every packet and keeps the ones that describe a flow.
// It stops early when ctx is done.
func Drafts(ctx context.Context, packets []Packet, parser Parser) []flow.Draft {
	drafts := make([]flow.Draft, 0, len(packets))
	for _, p := range packets {
		if ctx.Err() != nil {
			break
		}
		if d, ok := parser.Parse(ctx, p); ok {
			drafts = append(drafts, d)
		}
	}
	return drafts
}

// RawParser connects the source host to the destination host.
type RawParser struct {
	Hosts HostResolver
}

// Parse implements [Parser].
func (r *RawParser) Parse(ctx context.Context, p Packet) (flow.Draft, bool) {
	return flow.Draft{
		Source: r.Hosts.Resolve(ctx, p.SrcIP),
		Target: r.Hosts.Resolve(ctx, p.DstIP),
	}, true
}

// RedisParser reads RESP commands sent to redis queues.
//
// A command frame looks like:
//
//	*2\r\n$4\r\nlpop\r\n$30\r\nmq::elecena_products::messages\r\n
//
// LPOP becomes queue -> lpop -> client, RPUSH becomes client -> rpush -> queue.
type RedisParser struct {
	Hosts HostResolver
}

// Parse implements [Parser].
func (r *RedisParser) Parse(ctx context.Context, p Packet) (flow.Draft, bool) {
	lines := strings.Split(strings.TrimSpace(string(p.Payload)), "\n")
	if len(lines) < 5 {
		return flow.Draft{}, false
	}
	cmd := strings.ToLower(strings.TrimSpace(lines[2]))
	arg := strings.ToLower(strings.TrimSpace(lines[4]))

	switch cmd {
	case "lpop":
		return flow.Draft{Source: arg, Edge: cmd, Target: r.Hosts.Resolve(ctx, p.SrcIP)}, true
	case "rpush":
		return flow.Draft{Source: r.Hosts.Resolve(ctx, p.SrcIP), Edge: cmd, Target: arg}, true
	default:
		return flow.Draft{}, false
	}
}

var (
	scribeLogCall  = []byte("\x03Log\x01\x00")
	scribeCategory = regexp.MustCompile(`([a-z_]+)\x0b\x00\x02\x00\x00`)
)

// ScribeParser reads Thrift Log calls sent to or from a scribe host.
//
// Traffic from ScribeHost becomes category -> scribe -> dst:<host>; any other
// sender becomes src:<host> -> scribe -> category.
type ScribeParser struct {
	Hosts      HostResolver
	ScribeHost string
}

// Parse implements [Parser].
func (s *ScribeParser) Parse(ctx context.Context, p Packet) (flow.Draft, bool) {
	if !bytes.Contains(p.Payload, scribeLogCall) {
		return flow.Draft{}, false
	}
	m := scribeCategory.FindSubmatch(p.Payload)
	if m == nil {
		return flow.Draft{}, false
	}
	category := string(m[1])

	src := s.Hosts.Resolve(ctx, p.SrcIP)
	dst := s.Hosts.Resolve(ctx, p.DstIP)
	if src == s.ScribeHost {
		return flow.Draft{Source: category, Edge: "scribe", Target: "dst:" + dst}, true
	}
	return flow.Draft{Source: "src:" + src, Edge: "scribe", Target: category}, true
}
