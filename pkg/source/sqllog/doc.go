// Package sqllog turns SQL query logs stored in Elasticsearch into
// data-flow edges between code and database tables.
//
// Each log message records one SQL statement together with the code location
// that issued it. [Extract] reads the statement kind, the database, the table
// and the code method. [Query.Draft] then orients the edge: reads flow from
// the table to the code and writes flow from the code to the table.
//
//	client, err := sqllog.NewClient(sqllog.ClientConfig{URL: "http://127.0.0.1:59200"}, logger)
//	messages, err := client.Search(ctx, sqllog.SearchOptions{IndexPrefix: "syslog-ng_"})
//	drafts, skipped := sqllog.Drafts(messages)
//	edges, err := flow.Aggregate(drafts, flow.Counter{Unit: "queries"})
package sqllog
