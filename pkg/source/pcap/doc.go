// Package pcap turns packet captures into data-flow edges.
//
// [ReadFile] decodes a pcap or pcapng file into [Packet] values: the IP
// endpoints and application payload of every packet that has one. A protocol
// [Parser] then maps each packet to a [flow.Draft]:
//
//   - redis: queue traffic. LPOP reads a queue into the client host and
//     RPUSH writes from the client host into a queue.
//   - scribe: log shipping. Hosts push categories to the scribe host, which
//     pushes them on to its consumers.
//   - raw: host to host traffic with an empty edge label.
//
// Hosts are named by a [Resolver] that reverse-resolves IP addresses
// through a [cache.Cache].
//
//	packets, stats, err := pcap.ReadFile(ctx, "capture.pcap")
//	parser, err := pcap.NewParser(pcap.ProtoRedis, resolver, "")
//	drafts := pcap.Drafts(ctx, packets, parser)
//	edges, err := flow.Aggregate(drafts, flow.Counter{Unit: "packets"})
package pcap
