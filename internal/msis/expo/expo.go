// Package expo is a pure-Go stand-in for the NRLMSISE-00 library.
//
// Mass density comes from the piecewise exponential atmosphere in Vallado,
// "Fundamentals of Astrodynamics and Applications", Table 8-4. Exospheric
// temperature uses the Jacchia global relation driven by F10.7 and Kp, and
// the local temperature follows a Bates profile above 120 km. Species number
// densities are not modelled and are reported as zero.
package expo

import (
	"math"
	"sort"

	"github.com/star/msisgo/internal/msis"
)

// Name identifies this backend in config and metrics.
const Name = "exponential"

// band is one row of the exponential table.
type band struct {
	base   float64 // km
	rho0   float64 // kg/m^3
	height float64 // scale height, km
}

var bands = []band{
	{0, 1.225, 7.249},
	{25, 3.899e-2, 6.349},
	{30, 1.774e-2, 6.682},
	{40, 3.972e-3, 7.554},
	{50, 1.057e-3, 8.382},
	{60, 3.206e-4, 7.714},
	{70, 8.770e-5, 6.549},
	{80, 1.905e-5, 5.799},
	{90, 3.396e-6, 5.382},
	{100, 5.297e-7, 5.877},
	{110, 9.661e-8, 7.263},
	{120, 2.438e-8, 9.473},
	{130, 8.484e-9, 12.636},
	{140, 3.845e-9, 16.149},
	{150, 2.070e-9, 22.523},
	{180, 5.464e-10, 29.740},
	{200, 2.789e-10, 37.105},
	{250, 7.248e-11, 45.546},
	{300, 2.418e-11, 53.628},
	{350, 9.518e-12, 53.298},
	{400, 3.725e-12, 58.515},
	{450, 1.585e-12, 60.828},
	{500, 6.967e-13, 63.822},
	{600, 1.454e-13, 71.835},
	{700, 3.614e-14, 88.667},
	{800, 1.170e-14, 124.64},
	{900, 5.245e-15, 181.05},
	{1000, 3.019e-15, 268.00},
}

// ap/Kp conversion table in thirds of Kp (0, 0+, 1-, 1, ... 9).
var apTable = []float64{0, 2, 3, 4, 5, 6, 7, 9, 12, 15, 18, 22, 27, 32, 39, 48, 56, 67, 80, 94, 111, 132, 154, 179, 207, 236, 300, 400}

const (
	t120      = 355.0 // K, lower boundary temperature of the Bates profile
	batesS    = 0.02  // 1/km, Bates shape parameter
	boundary  = 120.0 // km
	cgsFactor = 1e-3  // kg/m^3 to g/cm^3
)

// Model implements msis.Model. The zero value is ready to use and has no
// mutable state.
type Model struct{}

// New returns the exponential backend.
func New() Model {
	return Model{}
}

// GTD7D fills out from in. Altitudes outside the table use the nearest
// band's exponential, unclamped.
func (Model) GTD7D(in *msis.Input, flags *msis.Flags, out *msis.Output) {
	*out = msis.Output{}

	rho := Density(in.Alt)
	if flags.Switches[msis.SwitchUnits] == 0 {
		rho *= cgsFactor
	}
	out.D[msis.DensityMass] = rho

	ap := in.Ap
	if flags.Switches[msis.SwitchDailyAp] == -1 && in.APA != nil {
		ap = in.APA[0]
	}

	tinf := ExosphericTemperature(in.F107A, in.F107, ap, flags.Switches[msis.SwitchDailyAp] != 0)
	out.T[msis.TempExospheric] = tinf
	out.T[msis.TempLocal] = LocalTemperature(tinf, in.Alt)
}

// Density returns the nominal mass density in kg/m^3 at altitude km.
func Density(alt float64) float64 {
	i := sort.Search(len(bands), func(i int) bool { return bands[i].base > alt }) - 1
	if i < 0 {
		i = 0
	}
	b := bands[i]
	return b.rho0 * math.Exp(-(alt-b.base)/b.height)
}

// ExosphericTemperature returns the Jacchia global exospheric temperature in
// kelvin. The geomagnetic term is included only when geomag is true.
func ExosphericTemperature(f107a, f107, ap float64, geomag bool) float64 {
	tc := 379.0 + 3.24*f107a + 1.3*(f107-f107a)
	if !geomag {
		return tc
	}
	kp := KpFromAp(ap)
	return tc + 28.0*kp + 0.03*math.Exp(kp)
}

// LocalTemperature evaluates the Bates profile at alt km for tinf.
func LocalTemperature(tinf, alt float64) float64 {
	if alt <= boundary {
		return t120
	}
	return tinf - (tinf-t120)*math.Exp(-batesS*(alt-boundary))
}

// KpFromAp converts an ap value to Kp by linear interpolation of the
// standard conversion table. Values above 400 map to 9.
func KpFromAp(ap float64) float64 {
	if ap <= 0 {
		return 0
	}
	last := len(apTable) - 1
	if ap >= apTable[last] {
		return 9
	}
	i := sort.SearchFloat64s(apTable, ap)
	if apTable[i] == ap {
		return float64(i) / 3
	}
	lo, hi := apTable[i-1], apTable[i]
	frac := (ap - lo) / (hi - lo)
	return (float64(i-1) + frac) / 3
}
