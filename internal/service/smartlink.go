package service

import "regexp"

// SmartLink is a shortcut into another app suggested by a task's wording.
type SmartLink struct {
	App   string
	Icon  string
	URL   string
	Color string
	Label string
}

type smartLinkRule struct {
	pattern *regexp.Regexp
	link    SmartLink
}

var smartLinkRules = []smartLinkRule{
	{regexp.MustCompile(`(?i)\b(email|mail|gmail|outlook)\b`), SmartLink{"Gmail", "📧", "mailto:", "bg-red-500", "Compose Email"}},
	{regexp.MustCompile(`(?i)\b(instagram|ig|post)\b`), SmartLink{"Instagram", "📸", "https://www.instagram.com", "bg-pink-600", "Open Instagram"}},
	{regexp.MustCompile(`(?i)\b(linkedin|connect|profile)\b`), SmartLink{"LinkedIn", "💼", "https://www.linkedin.com", "bg-blue-700", "Open LinkedIn"}},
	{regexp.MustCompile(`(?i)\b(whatsapp|wa|message|text)\b`), SmartLink{"WhatsApp", "💬", "https://wa.me", "bg-green-500", "Send WhatsApp"}},
	{regexp.MustCompile(`(?i)\b(maps|location|directions|place|at)\b`), SmartLink{"Google Maps", "📍", "https://www.google.com/maps", "bg-emerald-600", "Open Maps"}},
	{regexp.MustCompile(`(?i)\b(youtube|yt|video|watch)\b`), SmartLink{"YouTube", "🎬", "https://www.youtube.com", "bg-red-600", "Watch Video"}},
	{regexp.MustCompile(`(?i)\b(spotify|music|listen|song|playlist)\b`), SmartLink{"Spotify", "🎧", "https://open.spotify.com", "bg-green-600", "Open Spotify"}},
}

// DetectSmartLinks returns the shortcuts whose keywords appear in text, in a fixed order.
func DetectSmartLinks(text string) []SmartLink {
	if text == "" {
		return nil
	}
	var out []SmartLink
	for _, rule := range smartLinkRules {
		if rule.pattern.MatchString(text) {
			out = append(out, rule.link)
		}
	}
	return out
}
