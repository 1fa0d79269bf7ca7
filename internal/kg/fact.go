// internal/kg/fact.go
package kg

import (
	"fmt"
	"strconv"
)

// Fact 一条 主语-谓语-宾语 事实
type Fact struct {
	Subject   string
	Predicate string
	Object    string
	Literal   bool // 宾语是否为字面量，否则为 IRI
}

// NewFact 创建宾语为 IRI 的事实
func NewFact(subject, predicate, object string) Fact {
	return Fact{Subject: subject, Predicate: predicate, Object: object}
}

// NewLiteralFact 创建宾语为字面量的事实
func NewLiteralFact(subject, predicate, value string) Fact {
	return Fact{Subject: subject, Predicate: predicate, Object: value, Literal: true}
}

// IsValid 主语与谓语必须非空
func (f Fact) IsValid() bool {
	return f.Subject != "" && f.Predicate != ""
}

func (f Fact) String() string {
	object := CompactIRI(f.Object)
	if f.Literal {
		object = strconv.Quote(f.Object)
	}
	return fmt.Sprintf("%s %s %s .", CompactIRI(f.Subject), CompactIRI(f.Predicate), object)
}
