package core

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

const defaultLang = "en"

var (
	translations   = make(map[string]map[string]string)
	supportedLangs = map[string]struct{}{
		"en": {},
		"el": {},
	}
	langMatcher = language.NewMatcher([]language.Tag{
		language.English,
		language.Greek,
	})
	loadOnce sync.Once
	loadErr  error
)

func loadTranslationsOnce() {
	loadOnce.Do(func() {
		// First attempt: current working directory
		loadErr = loadTranslationsFromDir("locales")

		// Second attempt: relative to this source file, for tests run from the
		// package directory.
		if translations[defaultLang] == nil {
			if _, file, _, ok := runtime.Caller(0); ok {
				baseDir := filepath.Dir(file)
				altLocales := filepath.Join(baseDir, "..", "locales")
				if err := loadTranslationsFromDir(altLocales); err != nil && loadErr == nil {
					loadErr = err
				}
			}
		}

		if loadErr != nil && len(translations) == 0 {
			Errorf("Could not load translations: %v", loadErr)
		}

		if translations[defaultLang] == nil {
			Errorf("Warning: no translations loaded for the default language (%s)", defaultLang)
		}
	})
}

func loadTranslationsFromDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		lang := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		lang = strings.ToLower(lang)
		if !isSupportedLang(lang) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		file, err := os.Open(path)
		if err != nil {
			Errorf("Could not open translation file %s: %v", path, err)
			continue
		}

		var data map[string]string
		if err := json.NewDecoder(file).Decode(&data); err != nil {
			Errorf("Could not parse %s: %v", path, err)
			_ = file.Close()
			continue
		}
		_ = file.Close()

		translations[lang] = data
		Infof("Translations loaded for %s (%d keys)", lang, len(data))
	}

	return nil
}

func isSupportedLang(lang string) bool {
	_, ok := supportedLangs[lang]
	return ok
}

// normalizeLang maps common variants onto a supported code, or the default.
func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))

	switch lang {
	case "en-us", "en-gb", "en-uk", "en-ca":
		lang = "en"
	case "gr", "el-gr", "ell", "gre":
		lang = "el"
	}

	if isSupportedLang(lang) {
		return lang
	}
	return defaultLang
}

// T returns the translation for a key. Unknown keys come back verbatim.
func T(lang, key string) string {
	loadTranslationsOnce()

	lang = normalizeLang(lang)
	if m, ok := translations[lang]; ok {
		if val, ok := m[key]; ok && val != "" {
			return val
		}
	}

	if lang != defaultLang {
		if m, ok := translations[defaultLang]; ok {
			if val, ok := m[key]; ok && val != "" {
				return val
			}
		}
	}

	return key
}

// AvailableLangs lists the supported language codes.
func AvailableLangs() []string {
	result := make([]string, 0, len(supportedLangs))
	for lang := range supportedLangs {
		result = append(result, lang)
	}
	return result
}

// ResolveLang picks the language from the form value, the lang cookie, or the
// Accept-Language header, in that order.
func ResolveLang(r *http.Request) string {
	if r == nil {
		return defaultLang
	}

	if v := r.FormValue("language"); v != "" {
		if lang := normalizeLang(v); isSupportedLang(lang) {
			return lang
		}
	}

	if c, err := r.Cookie("lang"); err == nil && c != nil {
		lang := normalizeLang(c.Value)
		if isSupportedLang(lang) {
			return lang
		}
	}

	if al := r.Header.Get("Accept-Language"); al != "" {
		if tags, _, err := language.ParseAcceptLanguage(al); err == nil {
			_, idx, conf := langMatcher.Match(tags...)
			if conf != language.No {
				switch idx {
				case 1:
					return "el"
				default:
					return "en"
				}
			}
		}
	}

	return defaultLang
}

// IsSupportedLang exposes the supported-language check.
func IsSupportedLang(lang string) bool {
	return isSupportedLang(lang)
}
