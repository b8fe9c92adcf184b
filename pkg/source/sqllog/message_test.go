package sqllog

import (
	"encoding/json"
	"testing"

	"github.com/matzehuels/flowgraph/pkg/flow"
)

func parseMessage(t *testing.T, raw string) Message {
	t.Helper()
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Query
	}{
		{
			name: "method from context",
			raw: `{"@message": "SQL SELECT id FROM products_prices WHERE id = 1",
				"@fields": {"database": {"name": "elecena"}},
				"@context": {"method": "Elecena\\Model\\Prices::getForProduct"}}`,
			want: Query{Kind: "SELECT", DB: "mysql", Table: "products_prices", Method: `Elecena\Model\Prices::getForProduct`},
		},
		{
			name: "sphinx web request",
			raw: `{"@message": "SQL select * FROM idx_products WHERE MATCH('foo')",
				"@fields": {"database": {"name": "sphinx"}, "http_method": "GET"},
				"@context": {"method": "Elecena\\Services\\Sphinx::search"}}`,
			want: Query{Kind: "SELECT", DB: "sphinx", Table: "idx_products", Method: `Elecena\Services\Sphinx::search`, WebRequest: true},
		},
		{
			name: "legacy trace",
			raw: `{"@message": "SQL UPDATE queue SET done = 1",
				"@fields": {"database": {"name": "elecena"}},
				"@context": {"exception": {"trace": [
					"/opt/elecena/backend/classes/Db.php:12",
					"/opt/elecena/backend/mq/request.php:421",
					"/opt/elecena/backend/run.php:3"]}}}`,
			want: Query{Kind: "UPDATE", DB: "mysql", Table: "queue", Method: "mq/request.php::_update"},
		},
		{
			name: "insert into",
			raw: `{"@message": "SQL INSERT INTO stats (a) VALUES (1)",
				"@fields": {"database": {"name": "elecena"}},
				"@context": {"method": "Stats::add"}}`,
			want: Query{Kind: "INSERT", DB: "mysql", Table: "stats", Method: "Stats::add"},
		},
		{
			name: "no table and no method name",
			raw: `{"@message": "SQL SHOW STATUS",
				"@fields": {"database": {"name": "elecena"}},
				"@context": {"method": "cron_job"}}`,
			want: Query{Kind: "SHOW", DB: "mysql", Table: DefaultTable, Method: "cron_job::_"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(parseMessage(t, tt.raw))
			if !ok {
				t.Fatal("Extract() reported no code location")
			}
			if got != tt.want {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractWithoutLocation(t *testing.T) {
	m := parseMessage(t, `{"@message": "SQL SELECT 1", "@fields": {"database": {"name": "x"}}}`)
	if _, ok := Extract(m); ok {
		t.Error("Extract() should fail without a method or trace")
	}

	m = parseMessage(t, `{"@message": "SQL SELECT 1", "@context": {"exception": {"trace": ["/a.php:1"]}}}`)
	if _, ok := Extract(m); ok {
		t.Error("Extract() should fail with a single frame trace and no method")
	}
}

func TestQueryDraft(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want flow.Draft
	}{
		{
			name: "select reads table into class",
			q:    Query{Kind: "SELECT", DB: "mysql", Table: "products", Method: "Model\\Product::load"},
			want: flow.Draft{Source: "mysql:products", Edge: "load", Target: "Model\\Product"},
		},
		{
			name: "update writes class into table",
			q:    Query{Kind: "UPDATE", DB: "mysql", Table: "queue", Method: "mq/request.php::_update"},
			want: flow.Draft{Source: "mq/request.php", Edge: "_update", Target: "mysql:queue"},
		},
		{
			name: "delete is a write",
			q:    Query{Kind: "DELETE", DB: "sphinx", Table: "idx", Method: "Indexer::purge"},
			want: flow.Draft{Source: "Indexer", Edge: "purge", Target: "sphinx:idx"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Draft(); got != tt.want {
				t.Errorf("Draft() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDrafts(t *testing.T) {
	messages := []Message{
		{Message: "SQL SELECT * FROM a", Context: Context{Method: "A::read"}},
		{Message: "SQL SELECT 1"},
		{Message: "SQL INSERT INTO b VALUES (1)", Context: Context{Method: "B::write"}},
		{Message: "SQL SELECT * FROM a", Context: Context{Method: "A::read"}},
	}
	drafts, skipped := Drafts(messages)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}

	edges, err := flow.Aggregate(drafts, flow.Counter{Unit: "queries"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"mysql:a\tread\tA\t1.0000\t2 queries",
		"B\twrite\tmysql:b\t0.5000\t1 queries",
	}
	got := flow.FormatTSVLines(edges)
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}
