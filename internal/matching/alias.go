// Package matching 实现匹配引擎的核心纯函数：技能正规化、混合检索、要素打分与分数合成。
// 包内不做任何 I/O（别名辞典加载除外），便于独立测试与复用。
package matching

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// AliasIndex 是技能别名辞典的常驻索引。
// 辞典文件是 canonical -> [aliases...] 的 JSON 映射；索引按小写表层形式查找规范名。
// 进程启动时加载一次，打分期间只读，匹配引擎绝不修改它。
type AliasIndex struct {
	canonical map[string]string   // 小写表层形式 -> 规范名
	surfaces  map[string][]string // 规范名 -> 全部表层形式（含规范名自身）
	terms     []string            // 排序后的全部小写表层形式，用于需求词抽取
}

// LoadAliasIndex 从 JSON 文件加载技能别名辞典。
// 辞典缺失或无法解析属于配置缺陷，调用方应当视为致命错误（启动即失败）。
func LoadAliasIndex(path string) (*AliasIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取技能别名辞典失败: %w", err)
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析技能别名辞典失败: %w", err)
	}
	return NewAliasIndex(raw), nil
}

// NewAliasIndex 从 canonical -> aliases 映射构建索引。
func NewAliasIndex(raw map[string][]string) *AliasIndex {
	idx := &AliasIndex{
		canonical: make(map[string]string),
		surfaces:  make(map[string][]string),
	}
	for name, aliases := range raw {
		forms := append([]string{name}, aliases...)
		idx.surfaces[name] = forms
		for _, form := range forms {
			key := strings.ToLower(strings.TrimSpace(form))
			if key == "" {
				continue
			}
			if _, ok := idx.canonical[key]; !ok {
				idx.canonical[key] = name
			}
		}
	}
	idx.terms = make([]string, 0, len(idx.canonical))
	for key := range idx.canonical {
		idx.terms = append(idx.terms, key)
	}
	sort.Strings(idx.terms)
	return idx
}

// Size 返回辞典中规范技能的数量。
func (idx *AliasIndex) Size() int {
	return len(idx.surfaces)
}

// Canonical 按表层形式（大小写不敏感）查找规范名。未收录时返回 false。
func (idx *AliasIndex) Canonical(skill string) (string, bool) {
	name, ok := idx.canonical[strings.ToLower(strings.TrimSpace(skill))]
	return name, ok
}

// SurfaceForms 返回规范名的全部表层形式（含规范名自身）。未收录的技能只返回其自身。
func (idx *AliasIndex) SurfaceForms(canonical string) []string {
	if forms, ok := idx.surfaces[canonical]; ok {
		return forms
	}
	return []string{canonical}
}

// Terms 返回辞典的全部表层形式（小写、排序），用于从案件文本中抽取需求词。
func (idx *AliasIndex) Terms() []string {
	return idx.terms
}
