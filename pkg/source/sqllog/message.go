package sqllog

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/flowgraph/pkg/flow"
)

// Message is the _source document of one SQL log entry.
type Message struct {
	Message string  `json:"@message"` // "SQL SELECT ..."
	Fields  Fields  `json:"@fields"`
	Context Context `json:"@context"`
}

// Fields holds the indexed fields of a log entry.
type Fields struct {
	Database struct {
		Name string `json:"name"`
	} `json:"database"`

	// HTTPMethod is set when the statement ran within a web request.
	HTTPMethod *string `json:"http_method,omitempty"`
}

// Context describes the code that issued the statement.
type Context struct {
	Method    string     `json:"method,omitempty"` // e.g. Elecena\Services\Sphinx::search
	Exception *Exception `json:"exception,omitempty"`
}

// Exception carries the stack trace written by the legacy database logger.
type Exception struct {
	Trace []string `json:"trace"` // "/opt/app/backend/mq/request.php:421", innermost first
}

// Query is the metadata extracted from one Message.
type Query struct {
	Kind       string // SELECT, INSERT, ...
	DB         string // "sphinx" or "mysql"
	Table      string
	Method     string // <class>::<method>
	WebRequest bool
}

// DefaultTable is used when no table name can be found in the statement.
const DefaultTable = "products"

var tablePattern = regexp.MustCompile(`(FROM|INTO|UPDATE) (\w+)`)

var writeKinds = []string{"INSERT", "UPDATE", "DELETE"}

// Extract reads the query metadata of m. It reports false when m names no
// code location.
func Extract(m Message) (Query, bool) {
	sql := strings.TrimPrefix(m.Message, "SQL ")
	kind, _, _ := strings.Cut(sql, " ")
	kind = strings.ToUpper(kind)

	db := "mysql"
	if m.Fields.Database.Name == "sphinx" {
		db = "sphinx"
	}

	table := DefaultTable
	if match := tablePattern.FindStringSubmatch(sql); match != nil {
		table = match[2]
	}

	method := legacyMethod(m.Context.Exception, kind)
	if method == "" {
		method = m.Context.Method
	}
	if method == "" {
		return Query{}, false
	}
	if !strings.Contains(method, "::") {
		method += "::_"
	}

	return Query{
		Kind:       kind,
		DB:         db,
		Table:      table,
		Method:     method,
		WebRequest: m.Fields.HTTPMethod != nil,
	}, true
}

// legacyMethod derives "<dir>/<file>::_<kind>" from the caller frame of a
// legacy logger trace, e.g. "/opt/app/backend/mq/request.php:421" and SELECT
// give "mq/request.php::_select".
func legacyMethod(e *Exception, kind string) string {
	if e == nil || len(e.Trace) < 2 {
		return ""
	}
	frame := e.Trace[len(e.Trace)-2]

	parts := strings.Split(frame, "/")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	file, _, _ := strings.Cut(strings.Join(parts, "/"), ":")
	return file + "::_" + strings.ToLower(kind)
}

// Reads reports whether the statement only reads data.
func (q Query) Reads() bool {
	return !slices.Contains(writeKinds, q.Kind)
}

// Draft returns the edge of the query. The edge label is the method name and
// the code node is its class: reads flow db:table -> class, writes flow
// class -> db:table.
func (q Query) Draft() flow.Draft {
	table := q.DB + ":" + q.Table
	class, method, _ := strings.Cut(q.Method, "::")
	if q.Reads() {
		return flow.Draft{Source: table, Edge: method, Target: class}
	}
	return flow.Draft{Source: class, Edge: method, Target: table}
}

// Drafts extracts the edge of every message. Messages without a code
// location are skipped and counted.
func Drafts(messages []Message) (drafts []flow.Draft, skipped int) {
	drafts = make([]flow.Draft, 0, len(messages))
	for _, m := range messages {
		q, ok := Extract(m)
		if !ok {
			skipped++
			continue
		}
		drafts = append(drafts, q.Draft())
	}
	return drafts, skipped
}
