// Package i18n 提供按语言加载的界面字符串表与月份名称。
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// ErrUnknownLocale 不支持的语言代码
var ErrUnknownLocale = errors.New("unknown locale")

// Locale 单个语言的字符串表
type Locale struct {
	Code         string            `yaml:"code" json:"code"`
	Name         string            `yaml:"name" json:"name"`
	Tag          string            `yaml:"tag" json:"tag"`
	PeriodLayout string            `yaml:"period_layout" json:"periodLayout"`
	Months       []string          `yaml:"months" json:"months"`
	Strings      map[string]string `yaml:"strings" json:"strings"`
}

// T 取界面字符串，缺失时返回 key 本身
func (l *Locale) T(key string) string {
	if v, ok := l.Strings[key]; ok {
		return v
	}
	return key
}

// MonthName 月份全称（小写）
func (l *Locale) MonthName(m time.Month) string {
	return l.Months[int(m)-1]
}

// FormatPeriod 按语言格式化“月份 + 年份”
func (l *Locale) FormatPeriod(m time.Month, year int) string {
	r := strings.NewReplacer("{month}", l.MonthName(m), "{year}", strconv.Itoa(year))
	return r.Replace(l.PeriodLayout)
}

func (l *Locale) validate() error {
	if l.Code == "" {
		return errors.New("missing code")
	}
	if len(l.Months) != 12 {
		return fmt.Errorf("locale %s: expected 12 month names, got %d", l.Code, len(l.Months))
	}
	if !strings.Contains(l.PeriodLayout, "{month}") {
		return fmt.Errorf("locale %s: period_layout must contain {month}", l.Code)
	}
	if _, err := language.Parse(l.Tag); err != nil {
		return fmt.Errorf("locale %s: bad tag %q: %w", l.Code, l.Tag, err)
	}
	for i, m := range l.Months {
		l.Months[i] = strings.ToLower(strings.TrimSpace(m))
	}
	return nil
}

// Localizer 语言提供者，启动时加载一次后显式注入
type Localizer interface {
	Locale(code string) (*Locale, error)
	Default() *Locale
	Codes() []string
	Match(acceptLanguage string) *Locale
}

// Catalog 基于内置 YAML 的 Localizer 实现
type Catalog struct {
	locales map[string]*Locale
	codes   []string
	def     string
	matcher language.Matcher
	byTag   []string
}

// LoadCatalog 加载内置语言表，defaultCode 为兜底语言
func LoadCatalog(defaultCode string) (*Catalog, error) {
	files, err := fs.Glob(localeFS, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}

	c := &Catalog{locales: make(map[string]*Locale)}
	for _, name := range files {
		data, err := localeFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		loc, err := ParseLocale(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		c.locales[loc.Code] = loc
		c.codes = append(c.codes, loc.Code)
	}
	sort.Strings(c.codes)

	if _, ok := c.locales[defaultCode]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownLocale, defaultCode)
	}
	c.def = defaultCode

	// 兜底语言放在首位，Matcher 在无法匹配时返回第一个
	tags := []language.Tag{language.MustParse(c.locales[defaultCode].Tag)}
	c.byTag = []string{defaultCode}
	for _, code := range c.codes {
		if code == defaultCode {
			continue
		}
		tags = append(tags, language.MustParse(c.locales[code].Tag))
		c.byTag = append(c.byTag, code)
	}
	c.matcher = language.NewMatcher(tags)

	return c, nil
}

// ParseLocale 解析单个语言表
func ParseLocale(data []byte) (*Locale, error) {
	var loc Locale
	if err := yaml.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("failed to parse locale: %w", err)
	}
	if err := loc.validate(); err != nil {
		return nil, err
	}
	return &loc, nil
}

// Locale 按代码获取语言表
func (c *Catalog) Locale(code string) (*Locale, error) {
	loc, ok := c.locales[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, code)
	}
	return loc, nil
}

// Default 兜底语言
func (c *Catalog) Default() *Locale {
	return c.locales[c.def]
}

// Codes 支持的语言代码（已排序）
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Match 按 Accept-Language 协商语言
func (c *Catalog) Match(acceptLanguage string) *Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.Default()
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(c.byTag) {
		return c.Default()
	}
	return c.locales[c.byTag[idx]]
}
