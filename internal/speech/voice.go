package speech

import "strings"

// PickVoice chooses a voice for lang. A voice whose language matches lang
// exactly, or whose name contains preferred, wins over one that only shares
// the language prefix. It returns nil when no voice speaks the language.
func PickVoice(voices []Voice, lang, preferred string) *Voice {
	want := normalizeLang(lang)
	prefix, _, _ := strings.Cut(want, "-")
	if prefix == "" {
		return nil
	}
	preferred = strings.ToLower(strings.TrimSpace(preferred))

	var candidates []Voice
	for _, v := range voices {
		if strings.HasPrefix(normalizeLang(v.Lang), prefix) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	for _, v := range candidates {
		if normalizeLang(v.Lang) == want || (preferred != "" && strings.Contains(strings.ToLower(v.Name), preferred)) {
			picked := v
			return &picked
		}
	}
	picked := candidates[0]
	return &picked
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
}
