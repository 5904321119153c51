package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/five82/tminus/internal/resolve"
)

var (
	dimensionPattern = regexp.MustCompile(`^-?(\d+(\.\d+)?|\.\d+)(px|%|em|rem|vh|vw)?$`)
	ratioPattern     = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)$`)
	cssVarPattern    = regexp.MustCompile(`^var\(\s*--[a-zA-Z0-9_-]+\s*(,[^)]*)?\)$`)
)

// registerGrammars installs the card field grammars on v. Every grammar
// accepts template values unchecked; Home Assistant decides what they
// render to.
func registerGrammars(v *validator.Validate) error {
	grammars := map[string]func(string) bool{
		"csscolor":     func(s string) bool { return isColor(v, s) },
		"cssdimension": isDimension,
		"aspectratio":  isAspectRatio,
		"entityref":    resolve.IsEntityReference,
	}
	for tag, fn := range grammars {
		fn := fn
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			value := strings.TrimSpace(fl.Field().String())
			if resolve.IsTemplate(value) {
				return true
			}
			return fn(value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func isColor(v *validator.Validate, value string) bool {
	lower := strings.ToLower(value)
	if _, ok := namedColors[lower]; ok {
		return true
	}
	if cssVarPattern.MatchString(value) {
		return true
	}
	// hexcolor, rgb, rgba, hsl, hsla
	return v.Var(lower, "iscolor") == nil
}

func isDimension(value string) bool {
	return value == "auto" || dimensionPattern.MatchString(strings.ToLower(value))
}

func isAspectRatio(value string) bool {
	m := ratioPattern.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	w, errW := strconv.ParseFloat(m[1], 64)
	h, errH := strconv.ParseFloat(m[2], 64)
	return errW == nil && errH == nil && w > 0 && h > 0
}

var namedColors = map[string]struct{}{}

func init() {
	for _, name := range strings.Fields(`
		transparent currentcolor inherit
		aliceblue antiquewhite aqua aquamarine azure beige bisque black
		blanchedalmond blue blueviolet brown burlywood cadetblue chartreuse
		chocolate coral cornflowerblue cornsilk crimson cyan darkblue darkcyan
		darkgoldenrod darkgray darkgreen darkgrey darkkhaki darkmagenta
		darkolivegreen darkorange darkorchid darkred darksalmon darkseagreen
		darkslateblue darkslategray darkslategrey darkturquoise darkviolet
		deeppink deepskyblue dimgray dimgrey dodgerblue firebrick floralwhite
		forestgreen fuchsia gainsboro ghostwhite gold goldenrod gray grey green
		greenyellow honeydew hotpink indianred indigo ivory khaki lavender
		lavenderblush lawngreen lemonchiffon lightblue lightcoral lightcyan
		lightgoldenrodyellow lightgray lightgreen lightgrey lightpink
		lightsalmon lightseagreen lightskyblue lightslategray lightslategrey
		lightsteelblue lightyellow lime limegreen linen magenta maroon
		mediumaquamarine mediumblue mediumorchid mediumpurple mediumseagreen
		mediumslateblue mediumspringgreen mediumturquoise mediumvioletred
		midnightblue mintcream mistyrose moccasin navajowhite navy oldlace
		olive olivedrab orange orangered orchid palegoldenrod palegreen
		paleturquoise palevioletred papayawhip peachpuff peru pink plum
		powderblue purple rebeccapurple red rosybrown royalblue saddlebrown
		salmon sandybrown seagreen seashell sienna silver skyblue slateblue
		slategray slategrey snow springgreen steelblue tan teal thistle tomato
		turquoise violet wheat white whitesmoke yellow yellowgreen`) {
		namedColors[name] = struct{}{}
	}
}
