// internal/kg/neo4j.go
package kg

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"

	"github.com/Corphon/PoetryKGQA/internal/models"
)

// Neo4jStore 以 (:Poem {iri, title, author, ...}) 节点保存诗词的图谱后端
type Neo4jStore struct {
	driver   neo4j.Driver
	database string
}

// NewNeo4jStore 连接 Neo4j 并验证连通性
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriver(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(); err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to connect to Neo4j at %s: %w", uri, err)
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

// Name 实现 Graph
func (s *Neo4jStore) Name() string { return "neo4j" }

func (s *Neo4jStore) session(mode neo4j.AccessMode) neo4j.Session {
	return s.driver.NewSession(neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// Query 实现 Graph：QuerySpec 翻译为参数化 Cypher
func (s *Neo4jStore) Query(ctx context.Context, q *QuerySpec) ([]BindingRow, error) {
	cq, err := compileCypher(q)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := s.session(neo4j.AccessModeRead)
	defer session.Close()

	result, err := session.Run(cq.text, cq.params)
	if err != nil {
		return nil, fmt.Errorf("cypher query failed: %w", err)
	}

	rows := []BindingRow{}
	for result.Next() {
		record := result.Record()
		row := make(BindingRow, len(record.Keys))
		for i, key := range record.Keys {
			if record.Values[i] != nil {
				row[key] = fmt.Sprint(record.Values[i])
			}
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("cypher result failed: %w", err)
	}
	return rows, nil
}

// Stats 实现 Graph；事实数 = 类型事实 + 非空字段数
func (s *Neo4jStore) Stats(ctx context.Context) (Stats, error) {
	session := s.session(neo4j.AccessModeRead)
	defer session.Close()

	result, err := session.Run(`
		MATCH (p:Poem)
		RETURN count(p) AS poems, sum(size([k IN keys(p) WHERE k <> 'iri'])) AS props
	`, nil)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Backend: s.Name()}
	if result.Next() {
		values := result.Record().Values
		poems, _ := values[0].(int64)
		props, _ := values[1].(int64)
		stats.Poems = int(poems)
		stats.Facts = int(poems + props)
	}
	return stats, result.Err()
}

// Titles 实现 Graph
func (s *Neo4jStore) Titles(ctx context.Context) ([]string, error) {
	session := s.session(neo4j.AccessModeRead)
	defer session.Close()

	result, err := session.Run(`MATCH (p:Poem) WHERE p.title IS NOT NULL RETURN p.title AS title ORDER BY id(p)`, nil)
	if err != nil {
		return nil, err
	}

	var titles []string
	for result.Next() {
		if title, ok := result.Record().Values[0].(string); ok {
			titles = append(titles, title)
		}
	}
	return titles, result.Err()
}

// Seed 以 MERGE 写入诗词节点，按 iri 去重
func (s *Neo4jStore) Seed(ctx context.Context, poems []models.Poem) (int, error) {
	if len(poems) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	rows := make([]interface{}, 0, len(poems))
	for i, poem := range poems {
		props := make(map[string]interface{})
		for _, field := range PoemFields {
			if value := poem.Field(field); value != "" {
				props[field] = value
			}
		}
		rows = append(rows, map[string]interface{}{
			"iri":   PoemSubject(poem, i),
			"props": props,
		})
	}

	session := s.session(neo4j.AccessModeWrite)
	defer session.Close()

	result, err := session.Run(`
		UNWIND $rows AS row
		MERGE (p:Poem {iri: row.iri})
		SET p += row.props
	`, map[string]interface{}{"rows": rows})
	if err != nil {
		return 0, fmt.Errorf("failed to seed poems: %w", err)
	}
	if _, err := result.Consume(); err != nil {
		return 0, fmt.Errorf("failed to seed poems: %w", err)
	}
	return len(rows), nil
}

// Close 实现 Graph
func (s *Neo4jStore) Close() error {
	if s.driver != nil {
		return s.driver.Close()
	}
	return nil
}

// cypherQuery 编译结果
type cypherQuery struct {
	text   string
	params map[string]interface{}
}

// compileCypher 只支持以同一个诗词变量为主语的星形查询
func compileCypher(q *QuerySpec) (*cypherQuery, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	subject := ""
	typed := false
	exprs := make(map[string]string)
	var conds []string
	params := make(map[string]interface{})

	bindValue := func(value string) string {
		name := fmt.Sprintf("v%d", len(params))
		params[name] = value
		return "$" + name
	}

	patterns := func(list []TriplePattern, optional bool) error {
		for _, tp := range list {
			if tp.Subject.Kind != TermVar {
				return fmt.Errorf("%w: subject must be a variable in %s", ErrUnsupportedQuery, tp)
			}
			if subject == "" {
				subject = tp.Subject.Value
			} else if subject != tp.Subject.Value {
				return fmt.Errorf("%w: more than one subject variable", ErrUnsupportedQuery)
			}
			if tp.Predicate.Kind != TermIRI {
				return fmt.Errorf("%w: predicate must be an IRI in %s", ErrUnsupportedQuery, tp)
			}

			if tp.Predicate.Value == RDFType {
				if optional || tp.Object.Kind != TermIRI || tp.Object.Value != ClassPoem {
					return fmt.Errorf("%w: only a required rdf:type :Poem is supported", ErrUnsupportedQuery)
				}
				typed = true
				continue
			}

			field, ok := PredicateField(tp.Predicate.Value)
			if !ok {
				return fmt.Errorf("%w: unknown predicate %s", ErrUnsupportedQuery, CompactIRI(tp.Predicate.Value))
			}
			prop := "p." + field

			switch tp.Object.Kind {
			case TermVar:
				if _, dup := exprs[tp.Object.Value]; dup {
					return fmt.Errorf("%w: ?%s bound twice", ErrUnsupportedQuery, tp.Object.Value)
				}
				exprs[tp.Object.Value] = prop
				if !optional {
					conds = append(conds, prop+" IS NOT NULL")
				}
			case TermParam, TermLiteral:
				if optional {
					return fmt.Errorf("%w: optional constant in %s", ErrUnsupportedQuery, tp)
				}
				value := tp.Object.Value
				if tp.Object.Kind == TermParam {
					value = q.Params[tp.Object.Value]
				}
				conds = append(conds, prop+" = "+bindValue(value))
			default:
				return fmt.Errorf("%w: IRI object in %s", ErrUnsupportedQuery, tp)
			}
		}
		return nil
	}

	if err := patterns(q.Where, false); err != nil {
		return nil, err
	}
	if err := patterns(q.Optional, true); err != nil {
		return nil, err
	}
	if !typed {
		return nil, fmt.Errorf("%w: query must constrain the subject to :Poem", ErrUnsupportedQuery)
	}
	if _, ok := exprs[subject]; !ok {
		exprs[subject] = "p.iri"
	}
	for _, b := range q.Binds {
		exprs[b.Var] = bindValue(q.Params[b.Param])
	}

	var sb strings.Builder
	sb.WriteString("MATCH (p:Poem)")
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	returns := make([]string, 0, len(q.Select))
	for _, v := range q.Select {
		expr, ok := exprs[v]
		if !ok {
			return nil, fmt.Errorf("%w: cannot project ?%s", ErrUnsupportedQuery, v)
		}
		returns = append(returns, fmt.Sprintf("%s AS `%s`", expr, strings.ReplaceAll(v, "`", "``")))
	}
	sb.WriteString(" RETURN " + strings.Join(returns, ", "))
	sb.WriteString(" ORDER BY id(p)")

	return &cypherQuery{text: sb.String(), params: params}, nil
}
