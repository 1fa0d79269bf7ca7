// internal/kg/schema.go
package kg

import "strings"

// 诗词本体命名空间
const (
	PoetryNS = "http://www.semanticweb.org/ontologies/poetry#"
	RDFNS    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	RDFType = RDFNS + "type"

	ClassPoem = PoetryNS + "Poem"

	PredTitle        = PoetryNS + "title"
	PredAuthor       = PoetryNS + "author"
	PredDynasty      = PoetryNS + "dynasty"
	PredContent      = PoetryNS + "content"
	PredTranslation  = PoetryNS + "translation"
	PredAppreciation = PoetryNS + "appreciation"
)

// 诗词字段名，同时用作查询变量名
const (
	FieldTitle        = "title"
	FieldAuthor       = "author"
	FieldDynasty      = "dynasty"
	FieldContent      = "content"
	FieldTranslation  = "translation"
	FieldAppreciation = "appreciation"
)

// PoemFields 按固定顺序列出诗词字段
var PoemFields = []string{
	FieldTitle,
	FieldAuthor,
	FieldDynasty,
	FieldContent,
	FieldTranslation,
	FieldAppreciation,
}

// FieldPredicate 返回字段对应的谓词 IRI
func FieldPredicate(field string) string {
	return PoetryNS + field
}

// PredicateField 谓词 IRI 转字段名，不属于诗词本体时返回 false
func PredicateField(predicate string) (string, bool) {
	for _, field := range PoemFields {
		if FieldPredicate(field) == predicate {
			return field, true
		}
	}
	return "", false
}

// CompactIRI 使用 ":" 与 "rdf:" 前缀缩写 IRI，用于日志与调试输出
func CompactIRI(iri string) string {
	switch {
	case iri == RDFType:
		return "a"
	case strings.HasPrefix(iri, PoetryNS):
		return ":" + strings.TrimPrefix(iri, PoetryNS)
	case strings.HasPrefix(iri, RDFNS):
		return "rdf:" + strings.TrimPrefix(iri, RDFNS)
	default:
		return "<" + iri + ">"
	}
}
