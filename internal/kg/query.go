// internal/kg/query.go
package kg

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidQuery 查询结构不合法
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnsupportedQuery 后端无法表达该查询
	ErrUnsupportedQuery = errors.New("unsupported query")
)

// TermKind 查询项类型
type TermKind int

const (
	TermVar TermKind = iota
	TermIRI
	TermLiteral
	TermParam
)

// Term 三元组模式中的一项：变量、常量或执行时绑定的参数
type Term struct {
	Kind  TermKind
	Value string
}

// Var 查询变量 ?name
func Var(name string) Term { return Term{Kind: TermVar, Value: name} }

// IRI 常量 IRI
func IRI(iri string) Term { return Term{Kind: TermIRI, Value: iri} }

// Literal 常量字面量
func Literal(value string) Term { return Term{Kind: TermLiteral, Value: value} }

// Param 命名参数 $name，值在执行时从 QuerySpec.Params 取得
func Param(name string) Term { return Term{Kind: TermParam, Value: name} }

func (t Term) String() string {
	switch t.Kind {
	case TermVar:
		return "?" + t.Value
	case TermIRI:
		return CompactIRI(t.Value)
	case TermLiteral:
		return strconv.Quote(t.Value)
	case TermParam:
		return "$" + t.Value
	default:
		return "<invalid>"
	}
}

// TriplePattern 三元组模式
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (tp TriplePattern) String() string {
	return fmt.Sprintf("%s %s %s .", tp.Subject, tp.Predicate, tp.Object)
}

func (tp TriplePattern) terms() [3]Term {
	return [3]Term{tp.Subject, tp.Predicate, tp.Object}
}

// VarBind 将参数值绑定到变量，相当于 BIND($param AS ?var)
type VarBind struct {
	Var   string
	Param string
}

// QuerySpec 结构化图查询
type QuerySpec struct {
	Select   []string
	Where    []TriplePattern
	Optional []TriplePattern // 每个模式单独作为一个 OPTIONAL 块
	Binds    []VarBind
	Params   map[string]string
}

// BindingRow 一行结果，未绑定的 OPTIONAL 变量不出现在 map 中
type BindingRow map[string]string

// Validate 检查查询结构
func (q *QuerySpec) Validate() error {
	if q == nil {
		return fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	if len(q.Select) == 0 {
		return fmt.Errorf("%w: no projected variables", ErrInvalidQuery)
	}
	if len(q.Where) == 0 {
		return fmt.Errorf("%w: no required patterns", ErrInvalidQuery)
	}

	patternVars := make(map[string]bool)
	all := append(append([]TriplePattern{}, q.Where...), q.Optional...)
	for _, tp := range all {
		if tp.Subject.Kind == TermLiteral {
			return fmt.Errorf("%w: literal subject in %s", ErrInvalidQuery, tp)
		}
		if tp.Predicate.Kind == TermLiteral || tp.Predicate.Kind == TermParam {
			return fmt.Errorf("%w: predicate must be an IRI or variable in %s", ErrInvalidQuery, tp)
		}
		for _, term := range tp.terms() {
			if term.Value == "" && term.Kind != TermLiteral {
				return fmt.Errorf("%w: empty term in %s", ErrInvalidQuery, tp)
			}
			switch term.Kind {
			case TermVar:
				patternVars[term.Value] = true
			case TermParam:
				if _, ok := q.Params[term.Value]; !ok {
					return fmt.Errorf("%w: parameter $%s is not bound", ErrInvalidQuery, term.Value)
				}
			case TermIRI, TermLiteral:
			default:
				return fmt.Errorf("%w: unknown term kind %d", ErrInvalidQuery, term.Kind)
			}
		}
	}

	bound := make(map[string]bool, len(patternVars)+len(q.Binds))
	for v := range patternVars {
		bound[v] = true
	}
	for _, b := range q.Binds {
		if b.Var == "" {
			return fmt.Errorf("%w: empty bind variable", ErrInvalidQuery)
		}
		if patternVars[b.Var] || bound[b.Var] {
			return fmt.Errorf("%w: ?%s is already bound", ErrInvalidQuery, b.Var)
		}
		if _, ok := q.Params[b.Param]; !ok {
			return fmt.Errorf("%w: parameter $%s is not bound", ErrInvalidQuery, b.Param)
		}
		bound[b.Var] = true
	}

	for _, v := range q.Select {
		if !bound[v] {
			return fmt.Errorf("%w: projected variable ?%s does not appear in the query", ErrInvalidQuery, v)
		}
	}
	return nil
}

// String 以类 SPARQL 文本展示查询，参数保留为占位符
func (q *QuerySpec) String() string {
	if q == nil {
		return "<nil query>"
	}
	var sb strings.Builder
	sb.WriteString("SELECT")
	for _, v := range q.Select {
		sb.WriteString(" ?" + v)
	}
	sb.WriteString(" WHERE {")
	for _, tp := range q.Where {
		sb.WriteString(" " + tp.String())
	}
	for _, tp := range q.Optional {
		sb.WriteString(" OPTIONAL { " + tp.String() + " }")
	}
	for _, b := range q.Binds {
		sb.WriteString(fmt.Sprintf(" BIND($%s AS ?%s)", b.Param, b.Var))
	}
	sb.WriteString(" }")

	if len(q.Params) > 0 {
		names := make([]string, 0, len(q.Params))
		for name := range q.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("$%s=%q", name, q.Params[name]))
		}
		sb.WriteString(" [" + strings.Join(parts, ", ") + "]")
	}
	return sb.String()
}

// Builder 以链式调用构造 QuerySpec
type Builder struct {
	spec QuerySpec
}

// NewQuery 创建查询，vars 为投影变量
func NewQuery(vars ...string) *Builder {
	return &Builder{spec: QuerySpec{
		Select: append([]string(nil), vars...),
		Params: make(map[string]string),
	}}
}

// Where 添加必需模式
func (b *Builder) Where(subject, predicate, object Term) *Builder {
	b.spec.Where = append(b.spec.Where, TriplePattern{Subject: subject, Predicate: predicate, Object: object})
	return b
}

// Optional 添加 OPTIONAL 模式，未匹配时不会丢弃结果行
func (b *Builder) Optional(subject, predicate, object Term) *Builder {
	b.spec.Optional = append(b.spec.Optional, TriplePattern{Subject: subject, Predicate: predicate, Object: object})
	return b
}

// Bind 将参数值绑定到投影变量
func (b *Builder) Bind(variable, param string) *Builder {
	b.spec.Binds = append(b.spec.Binds, VarBind{Var: variable, Param: param})
	return b
}

// Param 设置命名参数的值
func (b *Builder) Param(name, value string) *Builder {
	b.spec.Params[name] = value
	return b
}

// Build 校验并返回查询
func (b *Builder) Build() (*QuerySpec, error) {
	spec := b.spec
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
