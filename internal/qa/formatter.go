// internal/qa/formatter.go
package qa

import (
	"fmt"

	"github.com/Corphon/PoetryKGQA/internal/kg"
	"github.com/Corphon/PoetryKGQA/internal/models"
)

// NoMatchMessage 无法识别问题时的固定回复
const NoMatchMessage = "抱歉，无法理解您的查询，请尝试其他查询方式"

// NoMatchAnswer 无法识别问题时的答案，来源仍为知识图谱
func NoMatchAnswer() *models.AnswerResult {
	return models.NewKGAnswer(NoMatchMessage)
}

// FormatResult 按意图把结果行整理成答案，所有结果的来源均为 kg
func FormatResult(intent models.Intent, entity string, rows []kg.BindingRow) *models.AnswerResult {
	switch intent {
	case models.IntentPoemsByAuthor:
		return titleList(rows, entity+"的诗歌作品", "未找到"+entity+"的诗歌作品")
	case models.IntentPoemsByDynasty:
		return titleList(rows, entity+"代的诗歌作品", "未找到"+entity+"代的诗歌作品")

	case models.IntentAuthorByPoem:
		if len(rows) > 0 {
			return models.NewKGAnswer(fmt.Sprintf("%s的作者是%s", entity, rows[0][kg.FieldAuthor]))
		}
		return models.NewKGAnswer(fmt.Sprintf("未找到《%s》的作者信息", entity))

	case models.IntentDynastyByPoem:
		if len(rows) > 0 {
			return models.NewKGAnswer(fmt.Sprintf("%s是%s代的作品", entity, rows[0][kg.FieldDynasty]))
		}
		return models.NewKGAnswer(fmt.Sprintf("未找到《%s》的朝代信息", entity))

	case models.IntentTranslationByPoem:
		if v, ok := firstValue(rows, kg.FieldTranslation); ok {
			return models.NewKGAnswer(fmt.Sprintf("%s的译文: %s", entity, v))
		}
		return models.NewKGAnswer(fmt.Sprintf("未找到《%s》的译文信息", entity))

	case models.IntentAppreciationByPoem:
		if v, ok := firstValue(rows, kg.FieldAppreciation); ok {
			return models.NewKGAnswer(fmt.Sprintf("%s的赏析: %s", entity, v))
		}
		return models.NewKGAnswer(fmt.Sprintf("未找到《%s》的赏析信息", entity))

	case models.IntentContentByPoem:
		return fullPoemInfo(entity, rows)

	default:
		return NoMatchAnswer()
	}
}

// titleList 有结果时 prompt 追加 "有"
func titleList(rows []kg.BindingRow, prompt, notFound string) *models.AnswerResult {
	if len(rows) == 0 {
		answer := models.NewKGAnswer(notFound)
		answer.Prompt = prompt
		return answer
	}

	titles := make([]string, 0, len(rows))
	for _, row := range rows {
		titles = append(titles, row[kg.FieldTitle])
	}
	answer := models.NewKGAnswer(titles...)
	answer.Prompt = prompt + "有"
	return answer
}

// firstValue 第一行中存在的非空字段值
func firstValue(rows []kg.BindingRow, field string) (string, bool) {
	if len(rows) == 0 {
		return "", false
	}
	v, ok := rows[0][field]
	return v, ok && v != ""
}

// fullPoemInfo 标题/作者/内容固定输出，译文与赏析存在时依次追加；只使用第一行
func fullPoemInfo(entity string, rows []kg.BindingRow) *models.AnswerResult {
	if len(rows) == 0 {
		return models.NewKGAnswer(fmt.Sprintf("未找到《%s》的内容信息", entity))
	}

	row := rows[0]
	result := []string{
		"标题: " + row[kg.FieldTitle],
		"作者: " + row[kg.FieldAuthor],
		"内容: " + row[kg.FieldContent],
	}
	if v, ok := row[kg.FieldTranslation]; ok && v != "" {
		result = append(result, "译文: "+v)
	}
	if v, ok := row[kg.FieldAppreciation]; ok && v != "" {
		result = append(result, "赏析: "+v)
	}

	answer := models.NewKGAnswer(result...)
	answer.Status = models.StatusFullPoemInfo
	return answer
}
