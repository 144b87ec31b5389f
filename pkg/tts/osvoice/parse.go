package osvoice

import (
	"regexp"
	"strings"

	"talkback/pkg/tts"
)

// sayVoiceRegex matches lines of `say -v ?` output:
//
//	Daniel              en_GB    # Hello, my name is Daniel.
var sayVoiceRegex = regexp.MustCompile(`^(.+?)\s{2,}([a-z]{2}[_-][A-Za-z_-]+)\s+#\s*(.*)$`)

// parseSayVoices extracts the English voices from `say -v ?` output,
// preserving the engine's enumeration order.
func parseSayVoices(output string) []tts.Voice {
	var voices []tts.Voice
	for _, line := range strings.Split(output, "\n") {
		m := sayVoiceRegex.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		locale := m[2]
		if !strings.HasPrefix(locale, "en") {
			continue
		}
		voices = append(voices, tts.Voice{
			ID:       name, // `say -v` selects by name
			Name:     name,
			Language: locale,
		})
	}
	return voices
}

// parseEspeakVoices extracts voices from `espeak-ng --voices=en` output.
// The first line is a column header (Pty Language Age/Gender VoiceName ...).
func parseEspeakVoices(output string) []tts.Voice {
	var voices []tts.Voice
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		lang := fields[1]
		if !strings.HasPrefix(lang, "en") {
			continue
		}
		voices = append(voices, tts.Voice{
			ID:       lang, // espeak-ng selects with -v <language>
			Name:     fields[3],
			Language: lang,
		})
	}
	return voices
}
