// internal/models/poem.go
package models

// Poem 语料库中的一首诗词
type Poem struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Title        string `json:"title" yaml:"title"`
	Author       string `json:"author" yaml:"author"`
	Dynasty      string `json:"dynasty" yaml:"dynasty"`
	Content      string `json:"content" yaml:"content"`
	Translation  string `json:"translation,omitempty" yaml:"translation,omitempty"`
	Appreciation string `json:"appreciation,omitempty" yaml:"appreciation,omitempty"`
}

// Corpus YAML语料文件的顶层结构
type Corpus struct {
	Poems []Poem `json:"poems" yaml:"poems"`
}

// Field 按字段名取值，未知字段返回空串
func (p Poem) Field(name string) string {
	switch name {
	case "title":
		return p.Title
	case "author":
		return p.Author
	case "dynasty":
		return p.Dynasty
	case "content":
		return p.Content
	case "translation":
		return p.Translation
	case "appreciation":
		return p.Appreciation
	default:
		return ""
	}
}

// SetField 按字段名赋值，未知字段忽略
func (p *Poem) SetField(name, value string) {
	switch name {
	case "title":
		p.Title = value
	case "author":
		p.Author = value
	case "dynasty":
		p.Dynasty = value
	case "content":
		p.Content = value
	case "translation":
		p.Translation = value
	case "appreciation":
		p.Appreciation = value
	}
}
