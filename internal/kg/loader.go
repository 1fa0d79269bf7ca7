// internal/kg/loader.go
package kg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knakk/rdf"
	"gopkg.in/yaml.v3"

	"github.com/Corphon/PoetryKGQA/internal/models"
)

// LoadFile 按扩展名加载语料：.ttl 为 Turtle，.yaml/.yml 为 YAML
func LoadFile(path string, store *MemoryStore) (int, error) {
	var load func(io.Reader, *MemoryStore) (int, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl":
		load = LoadTurtle
	case ".yaml", ".yml":
		load = LoadYAML
	default:
		return 0, fmt.Errorf("不支持的语料格式: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("打开语料文件失败: %w", err)
	}
	defer f.Close()

	return load(f, store)
}

// LoadTurtle 解析 Turtle 并写入存储，返回新增事实数
func LoadTurtle(r io.Reader, store *MemoryStore) (int, error) {
	triples, err := rdf.NewTripleDecoder(r, rdf.Turtle).DecodeAll()
	if err != nil {
		return 0, fmt.Errorf("解析Turtle失败: %w", err)
	}

	facts := make([]Fact, 0, len(triples))
	for _, tr := range triples {
		facts = append(facts, factFromTriple(tr))
	}
	return store.Add(facts...)
}

func factFromTriple(tr rdf.Triple) Fact {
	f := Fact{
		Subject:   termValue(tr.Subj),
		Predicate: termValue(tr.Pred),
		Object:    termValue(tr.Obj),
	}
	f.Literal = tr.Obj.Type() == rdf.TermLiteral
	return f
}

func termValue(t rdf.Term) string {
	value := t.String()
	if t.Type() == rdf.TermBlank && !strings.HasPrefix(value, "_:") {
		return "_:" + value
	}
	return value
}

// LoadYAML 解析 YAML 语料（poems 列表）并写入存储
func LoadYAML(r io.Reader, store *MemoryStore) (int, error) {
	var corpus models.Corpus
	if err := yaml.NewDecoder(r).Decode(&corpus); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("解析YAML失败: %w", err)
	}

	total := 0
	for i, poem := range corpus.Poems {
		n, err := store.AddPoem(PoemSubject(poem, i), poem)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// PoemSubject 为没有 IRI 的诗词生成主语
func PoemSubject(poem models.Poem, index int) string {
	id := strings.TrimSpace(poem.ID)
	switch {
	case id == "":
		return PoetryNS + "poem_" + strconv.Itoa(index+1)
	case strings.Contains(id, "://"), strings.HasPrefix(id, "_:"):
		return id
	default:
		return PoetryNS + id
	}
}
