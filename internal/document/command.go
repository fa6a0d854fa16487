package document

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidCommand 无效的编辑命令
var ErrInvalidCommand = errors.New("invalid command")

// 支持的编辑命令
const (
	CommandBold      = "bold"
	CommandItalic    = "italic"
	CommandUnderline = "underline"
	CommandColor     = "color"
	CommandHighlight = "highlight"
	CommandList      = "list"
	CommandClear     = "clear"
)

// Command 作用于纯文本字符区间 [Start, End) 的编辑命令
//
// 偏移以字符（rune）计，段落之间的换行占一个字符。
type Command struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Value string `json:"value"`
}

// Apply 执行命令，成功时原地修改文档
func (d *Document) Apply(cmd Command) error {
	total := utf8.RuneCountInString(d.PlainText())
	if cmd.Start < 0 || cmd.End < cmd.Start || cmd.End > total {
		return fmt.Errorf("%w: range [%d,%d) outside document of length %d", ErrInvalidCommand, cmd.Start, cmd.End, total)
	}

	switch cmd.Name {
	case CommandBold:
		d.toggle(cmd, func(s Style) bool { return s.Bold }, func(s *Style, on bool) { s.Bold = on })
	case CommandItalic:
		d.toggle(cmd, func(s Style) bool { return s.Italic }, func(s *Style, on bool) { s.Italic = on })
	case CommandUnderline:
		d.toggle(cmd, func(s Style) bool { return s.Underline }, func(s *Style, on bool) { s.Underline = on })
	case CommandColor:
		color := SanitizeColor(cmd.Value)
		if color == "" {
			return fmt.Errorf("%w: bad color %q", ErrInvalidCommand, cmd.Value)
		}
		d.each(cmd, func(s *Style) { s.Color = color })
	case CommandHighlight:
		// 空值表示清除高亮
		color := SanitizeColor(cmd.Value)
		if color == "" && cmd.Value != "" {
			return fmt.Errorf("%w: bad highlight %q", ErrInvalidCommand, cmd.Value)
		}
		d.each(cmd, func(s *Style) { s.Highlight = color })
	case CommandClear:
		d.each(cmd, func(s *Style) { *s = Style{} })
	case CommandList:
		d.toggleList(cmd)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, cmd.Name)
	}
	return nil
}

// span 段落在全文中的字符区间
type span struct {
	start, end int
}

func (d *Document) spans() []span {
	out := make([]span, len(d.Paragraphs))
	pos := 0
	for i, p := range d.Paragraphs {
		n := utf8.RuneCountInString(p.Text())
		out[i] = span{start: pos, end: pos + n}
		pos += n + 1
	}
	return out
}

// toggle 区间内全部已设置则取消，否则全部设置
func (d *Document) toggle(cmd Command, has func(Style) bool, set func(*Style, bool)) {
	all := true
	seen := false
	d.visit(cmd, func(r *Run) {
		seen = true
		if !has(r.Style) {
			all = false
		}
	})
	on := !(all && seen)
	d.each(cmd, func(s *Style) { set(s, on) })
}

func (d *Document) each(cmd Command, mutate func(*Style)) {
	d.visit(cmd, func(r *Run) { mutate(&r.Style) })
	for i := range d.Paragraphs {
		d.Paragraphs[i].normalize()
	}
}

// visit 拆分片段边界后依次访问区间内的片段
func (d *Document) visit(cmd Command, fn func(*Run)) {
	if cmd.Start == cmd.End {
		return
	}
	for i, sp := range d.spans() {
		from := max(cmd.Start, sp.start) - sp.start
		to := min(cmd.End, sp.end) - sp.start
		if from >= to {
			continue
		}
		p := &d.Paragraphs[i]
		p.splitAt(from)
		p.splitAt(to)

		pos := 0
		for j := range p.Runs {
			n := utf8.RuneCountInString(p.Runs[j].Text)
			if pos >= from && pos+n <= to {
				fn(&p.Runs[j])
			}
			pos += n
		}
	}
}

// splitAt 保证字符偏移 at 处是片段边界
func (p *Paragraph) splitAt(at int) {
	pos := 0
	for j, r := range p.Runs {
		n := utf8.RuneCountInString(r.Text)
		if at > pos && at < pos+n {
			runes := []rune(r.Text)
			left := Run{Text: string(runes[:at-pos]), Style: r.Style}
			right := Run{Text: string(runes[at-pos:]), Style: r.Style}
			p.Runs = append(p.Runs[:j], append([]Run{left, right}, p.Runs[j+1:]...)...)
			return
		}
		pos += n
	}
}

// toggleList 切换与区间相交（或包含光标）的段落的列表状态
func (d *Document) toggleList(cmd Command) {
	var touched []int
	for i, sp := range d.spans() {
		if cmd.Start <= sp.end && cmd.End >= sp.start {
			touched = append(touched, i)
		}
	}
	if len(touched) == 0 {
		return
	}
	all := true
	for _, i := range touched {
		if !d.Paragraphs[i].List {
			all = false
		}
	}
	for _, i := range touched {
		d.Paragraphs[i].List = !all
	}
}
