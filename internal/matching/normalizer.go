package matching

import (
	"sort"
	"strings"
)

// Normalize 把原始技能集合展开为规范技能集合：
// 辞典命中的表层形式替换为规范名，未收录的技能原样保留（开放词表）。
// 结果去重并排序，保证同一输入的输出完全一致；对已规范化的集合幂等。
func (idx *AliasIndex) Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, skill := range raw {
		s := strings.TrimSpace(skill)
		if s == "" {
			continue
		}
		if name, ok := idx.Canonical(s); ok {
			s = name
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
