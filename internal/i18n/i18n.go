// Package i18n negotiates the dashboard display language.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	CookieName = "rockwatch_lang"
	Default    = "en"
)

type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

var Languages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "hi", Name: "Hindi", NativeName: "हिंदी"},
	{Code: "mr", Name: "Marathi", NativeName: "मराठी"},
	{Code: "ta", Name: "Tamil", NativeName: "தமிழ்"},
	{Code: "te", Name: "Telugu", NativeName: "తెలుగు"},
	{Code: "bn", Name: "Bengali", NativeName: "বাংলা"},
	{Code: "gu", Name: "Gujarati", NativeName: "ગુજરાતી"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(Languages))
	for _, l := range Languages {
		tags = append(tags, language.Make(l.Code))
	}
	return language.NewMatcher(tags)
}()

func Lookup(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Match picks the closest supported language for an Accept-Language
// header, falling back to English.
func Match(acceptLanguage string) Language {
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	if idx < 0 || idx >= len(Languages) {
		return Languages[0]
	}
	return Languages[idx]
}

// Negotiate prefers a stored cookie over the request's Accept-Language.
func Negotiate(r *http.Request) Language {
	if c, err := r.Cookie(CookieName); err == nil {
		if l, ok := Lookup(c.Value); ok {
			return l
		}
	}
	return Match(r.Header.Get("Accept-Language"))
}

func SetCookie(w http.ResponseWriter, l Language) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    l.Code,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}
