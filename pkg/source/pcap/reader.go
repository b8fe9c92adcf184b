package pcap

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/observability"
)

// Packet is an IP packet that carries an application payload.
type Packet struct {
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	Payload   []byte
}

// Stats describes a capture file.
type Stats struct {
	Read     int           // packets in the file
	Kept     int           // packets with IP endpoints and a payload
	Duration time.Duration // time between the first and the last packet
}

// pcapngMagic is the block type of a pcapng section header.
var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

type packetSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// ReadFile reads a pcap or pcapng capture.
func ReadFile(ctx context.Context, path string) ([]Packet, Stats, error) {
	hooks := observability.Source()
	hooks.OnFetchStart(ctx, "pcap", path)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = errors.Wrap(errors.ErrCodeFileNotFound, err, "capture not found: %s", path)
		}
		hooks.OnFetchComplete(ctx, "pcap", path, 0, time.Since(start), err)
		return nil, Stats{}, err
	}
	defer f.Close()

	packets, stats, err := Read(ctx, f)
	hooks.OnFetchComplete(ctx, "pcap", path, stats.Read, time.Since(start), err)
	return packets, stats, err
}

// Read reads a pcap or pcapng capture from r. The format is detected from
// the first bytes.
func Read(ctx context.Context, r io.Reader) ([]Packet, Stats, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, Stats{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read capture header")
	}

	var src packetSource
	if bytes.Equal(magic, pcapngMagic) {
		src, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, Stats{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "open capture")
	}
	return decode(ctx, src)
}

func decode(ctx context.Context, src packetSource) ([]Packet, Stats, error) {
	var (
		packets     []Packet
		stats       Stats
		first, last time.Time
	)
	linkType := src.LinkType()

	for {
		if stats.Read%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		data, ci, err := src.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, errors.Wrap(errors.ErrCodeInvalidFormat, err, "packet %d", stats.Read+1)
		}

		stats.Read++
		if first.IsZero() {
			first = ci.Timestamp
		}
		last = ci.Timestamp

		if p, ok := toPacket(gopacket.NewPacket(data, linkType, gopacket.Lazy), ci.Timestamp); ok {
			packets = append(packets, p)
		}
	}

	stats.Kept = len(packets)
	stats.Duration = last.Sub(first)
	return packets, stats, nil
}

func toPacket(pkt gopacket.Packet, ts time.Time) (Packet, bool) {
	p := Packet{Timestamp: ts}

	switch ip := pkt.NetworkLayer().(type) {
	case *layers.IPv4:
		p.SrcIP, p.DstIP = ip.SrcIP.String(), ip.DstIP.String()
	case *layers.IPv6:
		p.SrcIP, p.DstIP = ip.SrcIP.String(), ip.DstIP.String()
	default:
		return Packet{}, false
	}

	if app := pkt.ApplicationLayer(); app != nil {
		p.Payload = app.Payload()
	} else if t := pkt.TransportLayer(); t != nil {
		p.Payload = t.LayerPayload()
	}
	if len(p.Payload) == 0 {
		return Packet{}, false
	}
	return p, true
}

// Header returns the comment line written above the edges of a capture.
func Header(stats Stats, proto string) string {
	if proto == "" {
		proto = ProtoRaw
	}
	return fmt.Sprintf("# processed %d packets sniffed in %.2f sec as %s", stats.Read, stats.Duration.Seconds(), proto)
}
