package pulse

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/derktes/lirc2broadlink/lirc"
)

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }
func uint64p(v uint64) *uint64 {
	return &v
}

func baseRemote(bits int, codes map[string]string) lirc.RemoteConfig {
	return lirc.RemoteConfig{
		Name:   "test",
		Bits:   intp(bits),
		Header: &lirc.Timing{On: 2400, Off: 600},
		One:    &lirc.Timing{On: 1200, Off: 600},
		Zero:   &lirc.Timing{On: 600, Off: 600},
		Codes:  codes,
	}
}

// trainOf expands a digit string with the 2400/1200/600 timings used by the
// fixtures below.
func trainOf(digits string) Train {
	t := Train{{2400, 600}}
	for _, d := range digits {
		if d == '1' {
			t = append(t, Pair{1200, 600})
		} else {
			t = append(t, Pair{600, 600})
		}
	}
	return t
}

func TestBinary(t *testing.T) {
	cases := []struct {
		code  string
		width int
		want  string
	}{
		{"0x30C", 15, "000001100001100"},
		{"0x540C", 15, "101010000001100"},
		{"0x186", 14, "00000110000110"},
		{"0x2A06", 14, "10101000000110"},
		{"0x410D", 15, "100000100001101"},
		{"0x3B0D", 15, "011101100001101"},
		{"0x13", 6, "010011"},
		{"0x33", 6, "110011"},
		{"0b101", 4, "0101"},
		{"12", 4, "1100"},
		{"0x0", 3, "000"},
	}
	for _, tc := range cases {
		got, err := Binary(tc.code, tc.width)
		require.NoError(t, err, tc.code)
		assert.Equal(t, tc.want, got, tc.code)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 2, 0x30C, 0x540C, 0xFFFF, 1 << 40, ^uint64(0)} {
		code := "0x" + strconv.FormatUint(v, 16)
		for _, width := range []int{64, 65, 80} {
			got, err := Binary(code, width)
			require.NoError(t, err)
			require.Len(t, got, width)
			back, err := strconv.ParseUint(got[width-64:], 2, 64)
			require.NoError(t, err)
			assert.Equal(t, v, back)
		}
	}
}

func TestBinaryOverflow(t *testing.T) {
	_, err := Binary("0x540C", 14)
	assert.ErrorIs(t, err, ErrCodeWidthOverflow)

	_, err = Binary("0x1", 0)
	assert.ErrorIs(t, err, ErrCodeWidthOverflow)
}

func TestBinaryInvalid(t *testing.T) {
	_, err := Binary("KEY", 8)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestGenerateSimple(t *testing.T) {
	rc := baseRemote(15, map[string]string{"TEST_CODE_1": "0x30C", "TEST_CODE_2": "0x540C"})

	trains, err := Generate(rc)
	require.NoError(t, err)

	want := map[string]Train{
		"TEST_CODE_1": {{2400, 600}, {600, 600}, {600, 600}, {600, 600},
			{600, 600}, {600, 600}, {1200, 600}, {1200, 600}, {600, 600}, {600, 600},
			{600, 600}, {600, 600}, {1200, 600}, {1200, 600}, {600, 600}, {600, 600}},
		"TEST_CODE_2": {{2400, 600}, {1200, 600}, {600, 600}, {1200, 600},
			{600, 600}, {1200, 600}, {600, 600}, {600, 600}, {600, 600},
			{600, 600}, {600, 600}, {600, 600}, {1200, 600}, {1200, 600},
			{600, 600}, {600, 600}},
	}
	if diff := cmp.Diff(want, trains); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateConstLengthWithTrail(t *testing.T) {
	rc := baseRemote(14, map[string]string{"TEST_CODE_1": "0x186", "TEST_CODE_2": "0x2A06"})
	rc.Flags = lirc.FlagConstLength
	rc.PTrail = int64p(600)
	rc.Gap = int64p(45000)

	trains, err := Generate(rc)
	require.NoError(t, err)

	want := map[string]Train{
		"TEST_CODE_1": append(trainOf("00000110000110"), Pair{600, 22200}),
		"TEST_CODE_2": append(trainOf("10101000000110"), Pair{600, 21600}),
	}
	if diff := cmp.Diff(want, trains); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateConstLengthWithoutTrail(t *testing.T) {
	rc := baseRemote(15, map[string]string{"TEST_CODE_1": "0x410D", "TEST_CODE_2": "0x3B0D"})
	rc.Flags = lirc.FlagConstLength
	rc.Gap = int64p(45000)

	trains, err := Generate(rc)
	require.NoError(t, err)

	code1 := trainOf("100000100001101")
	code1[len(code1)-1] = Pair{1200, 21600}
	code2 := trainOf("011101100001101")
	code2[len(code2)-1] = Pair{1200, 19800}
	if diff := cmp.Diff(map[string]Train{"TEST_CODE_1": code1, "TEST_CODE_2": code2}, trains); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateGapWithoutConstLength(t *testing.T) {
	rc := baseRemote(15, map[string]string{"K": "0x410D"})
	rc.Gap = int64p(45000)

	train, err := GenerateButton(rc, "K")
	require.NoError(t, err)
	assert.Equal(t, Pair{1200, 45600}, train[len(train)-1])
	assert.Len(t, train, 16)
}

func TestGeneratePostData(t *testing.T) {
	rc := baseRemote(6, map[string]string{"TEST_CODE_1": "0x13", "TEST_CODE_2": "0x33"})
	rc.Flags = lirc.FlagConstLength
	rc.Gap = int64p(45000)
	rc.PTrail = int64p(1200)
	rc.PostData = uint64p(0x86)
	rc.PostDataBits = intp(8)

	trains, err := Generate(rc)
	require.NoError(t, err)

	want := map[string]Train{
		"TEST_CODE_1": append(trainOf("010011"+"10000110"), Pair{1200, 20400}),
		"TEST_CODE_2": append(trainOf("110011"+"10000110"), Pair{1200, 19800}),
	}
	if diff := cmp.Diff(want, trains); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratePreData(t *testing.T) {
	rc := baseRemote(4, map[string]string{"K": "0x5"})
	rc.PreData = uint64p(0x3)
	rc.PreDataBits = intp(2)

	train, err := GenerateButton(rc, "K")
	require.NoError(t, err)
	assert.Equal(t, trainOf("11"+"0101"), train)
}

func TestGenerateNoGapNoTrail(t *testing.T) {
	rc := baseRemote(2, map[string]string{"K": "0x1"})
	train, err := GenerateButton(rc, "K")
	require.NoError(t, err)
	assert.Equal(t, Train{{2400, 600}, {600, 600}, {1200, 600}}, train)
}

func TestGenerateTrailWithoutGap(t *testing.T) {
	rc := baseRemote(1, map[string]string{"K": "0x1"})
	rc.PTrail = int64p(500)

	train, err := GenerateButton(rc, "K")
	require.NoError(t, err)
	assert.Equal(t, Pair{500, -500}, train[len(train)-1])
	assert.ErrorIs(t, train.Validate(), ErrNegativeGap)
}

func TestGenerateNegativeGapNotClamped(t *testing.T) {
	rc := baseRemote(15, map[string]string{"K": "0x7FFF"})
	rc.Flags = lirc.FlagConstLength
	rc.Gap = int64p(10000)

	train, err := GenerateButton(rc, "K")
	require.NoError(t, err)
	// 3000 + 15*1800 = 30000 already exceeds the frame length.
	assert.Equal(t, Pair{1200, 600 - 20000}, train[len(train)-1])
	assert.ErrorIs(t, train.Validate(), ErrNegativeGap)
}

func TestGenerateMissingFields(t *testing.T) {
	rc := baseRemote(15, map[string]string{"K": "0x1"})
	rc.Header = nil
	rc.Bits = nil

	_, err := Generate(rc)
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "bits")
	assert.Contains(t, err.Error(), "header")

	rc = baseRemote(8, map[string]string{"K": "0x1"})
	rc.PostData = uint64p(1)
	_, err = Generate(rc)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestGenerateWidthLimit(t *testing.T) {
	rc := baseRemote(1<<40, map[string]string{"K": "0x1"})
	trains, err := Generate(rc)
	assert.ErrorIs(t, err, ErrCodeWidthOverflow)
	assert.Nil(t, trains)

	rc = baseRemote(8, map[string]string{"K": "0x1"})
	rc.PreData = uint64p(1)
	rc.PreDataBits = intp(1 << 40)
	_, err = Generate(rc)
	assert.ErrorIs(t, err, ErrCodeWidthOverflow)

	rc = baseRemote(8, map[string]string{"K": "0x1"})
	rc.PostData = uint64p(1)
	rc.PostDataBits = intp(-1)
	_, err = Generate(rc)
	assert.ErrorIs(t, err, ErrCodeWidthOverflow)

	trains, err = Generate(baseRemote(64, map[string]string{"K": "0xFFFFFFFFFFFFFFFF"}))
	require.NoError(t, err)
	assert.Len(t, trains["K"], 65)
}

func TestGeneratePartialFailure(t *testing.T) {
	rc := baseRemote(8, map[string]string{"OK": "0x10", "WIDE": "0x1FF", "BAD": "zz"})

	trains, err := Generate(rc)
	require.Error(t, err)
	assert.Contains(t, trains, "OK")
	assert.NotContains(t, trains, "WIDE")
	assert.NotContains(t, trains, "BAD")

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.True(t, errors.Is(errs[0], ErrInvalidCode))
	assert.True(t, errors.Is(errs[1], ErrCodeWidthOverflow))
}

func TestGenerateEmptyCodes(t *testing.T) {
	trains, err := Generate(baseRemote(8, nil))
	require.NoError(t, err)
	assert.Empty(t, trains)
}

func TestGenerateButtonUnknown(t *testing.T) {
	_, err := GenerateButton(baseRemote(8, nil), "NOPE")
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	train := Train{{40, 40}, {80, 40}, {40, 40}, {40, 3600}}
	assert.Equal(t, []int64{40, 40, 80, 40, 40, 40, 40, 3600}, Flatten(train))
	assert.Empty(t, Flatten(nil))
	assert.Len(t, Flatten(make(Train, 7)), 14)
}
