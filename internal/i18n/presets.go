package i18n

// Preset is a one-click instruction chip. Command is always English because it
// is sent to the model verbatim.
type Preset struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Command string `json:"command"`
}

type presetDef struct {
	id      string
	labels  map[Locale]string
	command string
}

var presetDefs = []presetDef{
	{"background", map[Locale]string{Bengali: "ব্যাকগ্রাউন্ড", English: "Background"}, "Change the background to "},
	{"clothes", map[Locale]string{Bengali: "জামা/পোশাক", English: "Clothes"}, "Change the color of the clothes to "},
	{"hair", map[Locale]string{Bengali: "চুল", English: "Hair"}, "Change the hair color to "},
	{"sky", map[Locale]string{Bengali: "আকাশ", English: "Sky"}, "Make the sky look like "},
	{"face", map[Locale]string{Bengali: "চেহারা", English: "Face"}, "Improve the lighting on the face"},
}

// Presets returns the chips labelled for l.
func Presets(l Locale) []Preset {
	out := make([]Preset, 0, len(presetDefs))
	for _, d := range presetDefs {
		label, ok := d.labels[l]
		if !ok {
			label = d.labels[English]
		}
		out = append(out, Preset{ID: d.id, Label: label, Command: d.command})
	}
	return out
}
