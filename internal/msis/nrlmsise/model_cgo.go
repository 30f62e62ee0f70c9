//go:build cgo && nrlmsise

package nrlmsise

/*
#cgo LDFLAGS: -lnrlmsise00 -lm
#include <nrlmsise-00.h>

static void msisgo_gtd7d(struct nrlmsise_input *in, double *ap,
                         struct nrlmsise_flags *flags, struct nrlmsise_output *out)
{
	struct ap_array apa;
	for (int i = 0; i < 7; i++) {
		apa.a[i] = ap[i];
	}
	in->ap_a = &apa;
	gtd7d(in, flags, out);
	in->ap_a = 0;
}
*/
import "C"

import (
	"sync"

	"github.com/star/msisgo/internal/msis"
)

// The C implementation keeps working state in file-level statics.
var mu sync.Mutex

// Model calls gtd7d. Calls are serialised process-wide.
type Model struct{}

// New returns the C-backed model.
func New() (msis.Model, error) {
	return Model{}, nil
}

// GTD7D converts the records to their C layout and calls gtd7d.
func (Model) GTD7D(in *msis.Input, flags *msis.Flags, out *msis.Output) {
	var (
		cin    C.struct_nrlmsise_input
		cflags C.struct_nrlmsise_flags
		cout   C.struct_nrlmsise_output
		apa    [msis.NumAP]C.double
	)

	cin.year = C.int(in.Year)
	cin.doy = C.int(in.DOY)
	cin.sec = C.double(in.Sec)
	cin.alt = C.double(in.Alt)
	cin.g_lat = C.double(in.GLat)
	cin.g_long = C.double(in.GLong)
	cin.lst = C.double(in.LST)
	cin.f107A = C.double(in.F107A)
	cin.f107 = C.double(in.F107)
	cin.ap = C.double(in.Ap)
	if in.APA != nil {
		for i, v := range in.APA {
			apa[i] = C.double(v)
		}
	}
	for i, v := range flags.Switches {
		cflags.switches[i] = C.int(v)
	}

	mu.Lock()
	C.msisgo_gtd7d(&cin, &apa[0], &cflags, &cout)
	mu.Unlock()

	for i := range out.D {
		out.D[i] = float64(cout.d[i])
	}
	for i := range out.T {
		out.T[i] = float64(cout.t[i])
	}
}
