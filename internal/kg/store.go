// internal/kg/store.go
package kg

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/Corphon/PoetryKGQA/internal/models"
)

// Graph 图谱后端接口
type Graph interface {
	// Name 后端名称，用于日志与指标
	Name() string
	// Query 执行结构化查询
	Query(ctx context.Context, q *QuerySpec) ([]BindingRow, error)
	// Stats 返回图谱规模
	Stats(ctx context.Context) (Stats, error)
	// Titles 返回全部诗词标题
	Titles(ctx context.Context) ([]string, error)
	Close() error
}

// Stats 图谱统计信息
type Stats struct {
	Backend string `json:"backend"`
	Facts   int    `json:"facts"`
	Poems   int    `json:"poems"`
}

type poKey struct {
	predicate string
	object    string
}

// MemoryStore 内存三元组存储，按插入顺序返回结果
type MemoryStore struct {
	mu          sync.RWMutex
	facts       []Fact
	seen        map[Fact]struct{}
	bySubject   map[string][]int
	byPredicate map[string][]int
	byPredObj   map[poKey][]int
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen:        make(map[Fact]struct{}),
		bySubject:   make(map[string][]int),
		byPredicate: make(map[string][]int),
		byPredObj:   make(map[poKey][]int),
	}
}

// Name 实现 Graph
func (m *MemoryStore) Name() string { return "memory" }

// Add 写入事实，重复事实只保留一份
func (m *MemoryStore) Add(facts ...Fact) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, f := range facts {
		if !f.IsValid() {
			return added, fmt.Errorf("invalid fact: %s", f)
		}
		if _, dup := m.seen[f]; dup {
			continue
		}
		idx := len(m.facts)
		m.facts = append(m.facts, f)
		m.seen[f] = struct{}{}
		m.bySubject[f.Subject] = append(m.bySubject[f.Subject], idx)
		m.byPredicate[f.Predicate] = append(m.byPredicate[f.Predicate], idx)
		key := poKey{predicate: f.Predicate, object: f.Object}
		m.byPredObj[key] = append(m.byPredObj[key], idx)
		added++
	}
	return added, nil
}

// AddPoem 将一首诗写为 rdf:type 与字段事实，空字段不写入
func (m *MemoryStore) AddPoem(subject string, poem models.Poem) (int, error) {
	facts := []Fact{NewFact(subject, RDFType, ClassPoem)}
	for _, field := range PoemFields {
		if value := poem.Field(field); value != "" {
			facts = append(facts, NewLiteralFact(subject, FieldPredicate(field), value))
		}
	}
	return m.Add(facts...)
}

// Len 事实数量
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.facts)
}

// scanBound 调用方需持有读锁；Bound 标记区分 "未限定" 与 "限定为空字符串"
func (m *MemoryStore) scanBound(s, p, o string, sBound, pBound, oBound bool) iter.Seq[Fact] {
	var candidates []int
	full := false
	switch {
	case sBound:
		candidates = m.bySubject[s]
	case pBound && oBound:
		candidates = m.byPredObj[poKey{predicate: p, object: o}]
	case pBound:
		candidates = m.byPredicate[p]
	default:
		full = true
	}

	return func(yield func(Fact) bool) {
		emit := func(f Fact) bool {
			if sBound && f.Subject != s || pBound && f.Predicate != p || oBound && f.Object != o {
				return true
			}
			return yield(f)
		}
		if full {
			for _, f := range m.facts {
				if !emit(f) {
					return
				}
			}
			return
		}
		for _, idx := range candidates {
			if !emit(m.facts[idx]) {
				return
			}
		}
	}
}

// Query 实现 Graph：必需模式做嵌套连接，再逐个左连接 OPTIONAL 模式
func (m *MemoryStore) Query(ctx context.Context, q *QuerySpec) ([]BindingRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	solutions := []solution{{}}
	for _, tp := range q.Where {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []solution
		for _, sol := range solutions {
			next = append(next, m.extend(sol, tp, q.Params)...)
		}
		solutions = next
		if len(solutions) == 0 {
			return []BindingRow{}, nil
		}
	}

	for _, tp := range q.Optional {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []solution
		for _, sol := range solutions {
			extended := m.extend(sol, tp, q.Params)
			if len(extended) == 0 {
				next = append(next, sol)
				continue
			}
			next = append(next, extended...)
		}
		solutions = next
	}

	rows := make([]BindingRow, 0, len(solutions))
	for _, sol := range solutions {
		for _, b := range q.Binds {
			sol[b.Var] = Literal(q.Params[b.Param])
		}
		row := make(BindingRow, len(q.Select))
		for _, v := range q.Select {
			if t, ok := sol[v]; ok {
				row[v] = t.Value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// solution 变量到已绑定常量的映射
type solution map[string]Term

// resolve 将模式项解析为常量；未绑定的变量返回 false
func resolve(t Term, sol solution, params map[string]string) (Term, bool) {
	switch t.Kind {
	case TermVar:
		bound, ok := sol[t.Value]
		return bound, ok
	case TermParam:
		return Literal(params[t.Value]), true
	default:
		return t, true
	}
}

func (m *MemoryStore) extend(sol solution, tp TriplePattern, params map[string]string) []solution {
	s, sBound := resolve(tp.Subject, sol, params)
	p, pBound := resolve(tp.Predicate, sol, params)
	o, oBound := resolve(tp.Object, sol, params)

	// 主语与谓语只能是 IRI
	if sBound && s.Kind != TermIRI || pBound && p.Kind != TermIRI {
		return nil
	}

	var out []solution
	for f := range m.scanBound(s.Value, p.Value, o.Value, sBound, pBound, oBound) {
		if oBound && (o.Kind == TermLiteral) != f.Literal {
			continue
		}
		next := make(solution, len(sol)+3)
		for k, v := range sol {
			next[k] = v
		}
		objectTerm := IRI(f.Object)
		if f.Literal {
			objectTerm = Literal(f.Object)
		}
		if bindVar(next, tp.Subject, IRI(f.Subject)) &&
			bindVar(next, tp.Predicate, IRI(f.Predicate)) &&
			bindVar(next, tp.Object, objectTerm) {
			out = append(out, next)
		}
	}
	return out
}

// bindVar 绑定变量；同一变量在模式中重复出现时要求取值一致
func bindVar(sol solution, t Term, value Term) bool {
	if t.Kind != TermVar {
		return true
	}
	if existing, ok := sol[t.Value]; ok {
		return existing == value
	}
	sol[t.Value] = value
	return true
}

// Stats 实现 Graph
func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	poems := 0
	for range m.scanBound("", RDFType, ClassPoem, false, true, true) {
		poems++
	}
	return Stats{Backend: m.Name(), Facts: len(m.facts), Poems: poems}, nil
}

// Titles 实现 Graph，按插入顺序返回 Poem 的标题
func (m *MemoryStore) Titles(ctx context.Context) ([]string, error) {
	poems, err := m.Poems(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(poems))
	for _, poem := range poems {
		if poem.Title != "" {
			titles = append(titles, poem.Title)
		}
	}
	return titles, nil
}

// Poems 按插入顺序还原全部诗词记录，字段有多个值时取第一个
func (m *MemoryStore) Poems(ctx context.Context) ([]models.Poem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var poems []models.Poem
	for typeFact := range m.scanBound("", RDFType, ClassPoem, false, true, true) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		poem := models.Poem{ID: typeFact.Subject}
		for f := range m.scanBound(typeFact.Subject, "", "", true, false, false) {
			if !f.Literal {
				continue
			}
			if field, ok := PredicateField(f.Predicate); ok && poem.Field(field) == "" {
				poem.SetField(field, f.Object)
			}
		}
		poems = append(poems, poem)
	}
	return poems, nil
}

// Close 实现 Graph
func (m *MemoryStore) Close() error { return nil }
