package display

import _ "embed"

//go:embed style.css
var defaultStyle string
