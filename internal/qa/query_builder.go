// internal/qa/query_builder.go
package qa

import (
	"fmt"

	"github.com/Corphon/PoetryKGQA/internal/kg"
	"github.com/Corphon/PoetryKGQA/internal/models"
)

// EntityParam 实体在查询中的参数名
const EntityParam = "entity"

var poemVar = kg.Var("poem")

// BuildQuery 每个意图对应一种固定的查询形状，实体作为参数绑定
func BuildQuery(intent models.Intent, entity string) (*kg.QuerySpec, error) {
	switch intent {
	case models.IntentPoemsByAuthor:
		return lookup(kg.PredAuthor, kg.FieldTitle, entity)
	case models.IntentAuthorByPoem:
		return lookup(kg.PredTitle, kg.FieldAuthor, entity)
	case models.IntentDynastyByPoem:
		return lookup(kg.PredTitle, kg.FieldDynasty, entity)
	case models.IntentContentByPoem:
		return fullPoemQuery(entity)
	case models.IntentTranslationByPoem:
		return lookup(kg.PredTitle, kg.FieldTranslation, entity)
	case models.IntentAppreciationByPoem:
		return lookup(kg.PredTitle, kg.FieldAppreciation, entity)
	case models.IntentPoemsByDynasty:
		return lookup(kg.PredDynasty, kg.FieldTitle, entity)
	default:
		return nil, fmt.Errorf("unknown intent: %q", intent)
	}
}

// lookup ?poem a :Poem ; <constrain> $entity ; :<field> ?<field>
func lookup(constrain, field, entity string) (*kg.QuerySpec, error) {
	return kg.NewQuery(field).
		Where(poemVar, kg.IRI(kg.RDFType), kg.IRI(kg.ClassPoem)).
		Where(poemVar, kg.IRI(constrain), kg.Param(EntityParam)).
		Where(poemVar, kg.IRI(kg.FieldPredicate(field)), kg.Var(field)).
		Param(EntityParam, entity).
		Build()
}

// fullPoemQuery 无论问题问的是什么，都投影完整字段集；译文与赏析可缺失
func fullPoemQuery(title string) (*kg.QuerySpec, error) {
	return kg.NewQuery(kg.PoemFields...).
		Where(poemVar, kg.IRI(kg.RDFType), kg.IRI(kg.ClassPoem)).
		Where(poemVar, kg.IRI(kg.PredTitle), kg.Param(EntityParam)).
		Where(poemVar, kg.IRI(kg.PredAuthor), kg.Var(kg.FieldAuthor)).
		Where(poemVar, kg.IRI(kg.PredDynasty), kg.Var(kg.FieldDynasty)).
		Where(poemVar, kg.IRI(kg.PredContent), kg.Var(kg.FieldContent)).
		Optional(poemVar, kg.IRI(kg.PredTranslation), kg.Var(kg.FieldTranslation)).
		Optional(poemVar, kg.IRI(kg.PredAppreciation), kg.Var(kg.FieldAppreciation)).
		Bind(kg.FieldTitle, EntityParam).
		Param(EntityParam, title).
		Build()
}
