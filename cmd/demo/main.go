// cmd/demo/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/Corphon/PoetryKGQA/internal/app"
	"github.com/Corphon/PoetryKGQA/internal/config"
	"github.com/Corphon/PoetryKGQA/internal/models"
	"github.com/Corphon/PoetryKGQA/internal/qa"
	"github.com/Corphon/PoetryKGQA/internal/services"
)

const (
	cliBoxMaxWidth = 60 // 显示列数，中文占两列
	requestTimeout = time.Minute
)

var input = bufio.NewScanner(os.Stdin)

func main() {
	fmt.Println("📜 古诗词知识图谱问答控制台")
	fmt.Println("=================================")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := app.InitLogging(cfg, false); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ 无法初始化日志: %v\n", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	service := a.Service()
	for {
		showMenu()
		choice, ok := getUserInput("请选择: ")
		if !ok {
			return
		}

		switch choice {
		case "1", "ask":
			askLoop(service)
		case "2", "intent":
			queryByIntent(service)
		case "3", "suggest":
			suggestTitles(service)
		case "4", "stats":
			displayStats(service)
		case "5", "intents":
			listIntents(service)
		case "0", "quit", "exit":
			fmt.Println("再见！")
			return
		default:
			fmt.Println("无效的选择")
		}
		fmt.Println()
	}
}

// 显示菜单
func showMenu() {
	printBox("菜单", strings.Join([]string{
		"1) 提问",
		"2) 按意图查询",
		"3) 标题推荐",
		"4) 图谱统计",
		"5) 支持的问题类型",
		"0) 退出",
	}, "\n"))
}

// 获取用户输入；输入结束时返回 false
func getUserInput(prompt string) (string, bool) {
	fmt.Print(prompt)
	if !input.Scan() {
		return "", false
	}
	return strings.TrimSpace(input.Text()), true
}

// 1. 连续提问，空行返回菜单
func askLoop(service *services.QueryService) {
	fmt.Println("输入问题，例如 “静夜思的作者是谁”，空行返回菜单")
	for {
		question, ok := getUserInput("❓ ")
		if !ok || question == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		answer := service.Query(ctx, question)
		cancel()

		printAnswer(answer)
	}
}

// 2. 跳过分类，直接选择意图
func queryByIntent(service *services.QueryService) {
	intents := qa.Intents()
	for i, intent := range intents {
		fmt.Printf("  %d) %s\n", i+1, intent)
	}
	choice, _ := getUserInput("意图编号: ")
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(intents) {
		fmt.Println("无效的选择")
		return
	}
	entity, _ := getUserInput("实体（标题 / 作者 / 朝代）: ")

	answer, err := service.QueryIntent(context.Background(), string(intents[n-1]), entity)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	printAnswer(answer)
}

// 3. 标题推荐
func suggestTitles(service *services.QueryService) {
	query, _ := getUserInput("标题或片段: ")
	suggestions, err := service.SuggestTitles(context.Background(), query, qa.DefaultSuggestLimit)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	if len(suggestions) == 0 {
		fmt.Println("没有相近的标题")
		return
	}

	lines := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		lines = append(lines, fmt.Sprintf("%s (%.2f)", s.Title, s.Score))
	}
	printBox("推荐标题", strings.Join(lines, "\n"))
}

// 4. 图谱统计
func displayStats(service *services.QueryService) {
	stats, err := service.Stats(context.Background())
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}

	fallbackState := "未启用"
	if stats.FallbackEnabled {
		fallbackState = stats.FallbackState
	}
	printBox("图谱统计", strings.Join([]string{
		"后端: " + stats.Graph.Backend,
		fmt.Sprintf("三元组: %d", stats.Graph.Facts),
		fmt.Sprintf("诗词: %d", stats.Graph.Poems),
		fmt.Sprintf("缓存答案: %d", stats.CachedAnswers),
		"AI兜底: " + fallbackState,
	}, "\n"))
}

// 5. 意图规则表
func listIntents(service *services.QueryService) {
	intents := service.Intents()
	lines := make([]string, 0, len(intents))
	for _, info := range intents {
		lines = append(lines, fmt.Sprintf("%s  %s", info.Intent, info.Pattern))
	}
	printBox("问题类型（按优先级）", strings.Join(lines, "\n"))
}

func printAnswer(answer *models.AnswerResult) {
	if answer.IsError() {
		fmt.Printf("❌ %s\n", answer.Error)
		return
	}

	title := "知识图谱"
	if answer.Source == models.SourceAI {
		title = "AI"
	}
	if answer.Prompt != "" {
		title += " · " + answer.Prompt
	}
	printBox(title, strings.Join(answer.Result, "\n"))
}

func printBox(title, content string) {
	wrappedLines := wrapContentForBox(content, cliBoxMaxWidth)
	maxWidth := displayWidth(title)
	for _, line := range wrappedLines {
		if w := displayWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	border := strings.Repeat("─", maxWidth+2)
	fmt.Println("┌" + border + "┐")
	if title != "" {
		fmt.Printf("│ %s │\n", padRight(title, maxWidth))
		fmt.Println("├" + border + "┤")
	}
	if len(wrappedLines) == 0 {
		wrappedLines = []string{""}
	}
	for _, line := range wrappedLines {
		fmt.Printf("│ %s │\n", padRight(line, maxWidth))
	}
	fmt.Println("└" + border + "┘")
}

// wrapContentForBox 按显示列数折行，宽字符不会被拆到两行
func wrapContentForBox(content string, maxWidth int) []string {
	var result []string
	for _, rawLine := range strings.Split(content, "\n") {
		var line strings.Builder
		lineWidth := 0
		for _, r := range strings.TrimRight(rawLine, " ") {
			w := runeWidth(r)
			if lineWidth+w > maxWidth && lineWidth > 0 {
				result = append(result, line.String())
				line.Reset()
				lineWidth = 0
			}
			line.WriteRune(r)
			lineWidth += w
		}
		result = append(result, line.String())
	}
	return result
}

func padRight(text string, w int) string {
	current := displayWidth(text)
	if current >= w {
		return text
	}
	return text + strings.Repeat(" ", w-current)
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
