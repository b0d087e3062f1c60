package store

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/ironsheep/superpixel-tools/internal/geometry"
	"github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

func openStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), opts...)
	require.NoError(t, err)
	return s
}

func encodedPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestOpen_CreatesLayout(t *testing.T) {
	s := openStore(t)
	for _, dir := range []string{UploadsDir, SegmentsDir, LabelsDir, MasksDir} {
		info, err := os.Stat(filepath.Join(s.Root(), dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	_, err := Open("")
	assert.ErrorIs(t, err, superpixel.ErrInput)
}

func TestRecord_RoundTrip(t *testing.T) {
	s := openStore(t)
	rec := &Record{
		ImageID:       "abc",
		ImageFilename: "abc_field.png",
		ImageShape:    [3]int{20, 40, 3},
		NSegments:     2,
		Polygons: []geometry.Polygon{
			{ID: 0, Vertices: [][2]int{{0, 0}, {19, 0}, {19, 19}, {0, 19}}},
			{ID: 1, Vertices: [][2]int{{20, 0}}},
		},
		Meta: geometry.Meta{LabelsFound: 2},
		Features: map[string]FeatureSummary{
			"0": {Centroid: [2]float64{9.5, 9.5}, Area: 400, LabMean: [3]float64{53.2, 80.1, 67.2}},
			"1": {Centroid: [2]float64{29.5, 9.5}, Area: 400, LabMean: [3]float64{32.3, 79.2, -107.9}},
		},
	}
	require.NoError(t, s.SaveRecord(rec))

	got, err := s.LoadRecord("abc")
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), SegmentsDir, "abc_segments.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"polygon":[[0,0],[19,0],[19,19],[0,19]]`)
	assert.Contains(t, string(data), `"labels_found":2`)
	assert.Contains(t, string(data), `"image_shape":[20,40,3]`)
}

func TestRecord_Errors(t *testing.T) {
	s := openStore(t)

	_, err := s.LoadRecord("missing")
	assert.ErrorIs(t, err, superpixel.ErrNotFound)

	_, err = s.LoadRecord("../etc")
	assert.ErrorIs(t, err, superpixel.ErrInput)

	assert.ErrorIs(t, s.SaveRecord(nil), superpixel.ErrInput)
	assert.ErrorIs(t, s.SaveRecord(&Record{}), superpixel.ErrInput)

	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), SegmentsDir, "bad_segments.json"), []byte("{"), 0o644))
	_, err = s.LoadRecord("bad")
	assert.ErrorIs(t, err, superpixel.ErrConsistency)
}

func TestLabels(t *testing.T) {
	at := time.Unix(1700000000, 0)
	s := openStore(t, WithClock(func() time.Time { return at }))

	empty, err := s.Labels("img")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	entry, err := s.SaveLabel("img", 4, "good", "")
	require.NoError(t, err)
	assert.Equal(t, LabelEntry{Label: "good", User: DefaultUser, TS: 1700000000}, entry)

	_, err = s.SaveLabel("img", 7, "bad", "ana")
	require.NoError(t, err)
	_, err = s.SaveLabel("img", 4, "moderate", "ana")
	require.NoError(t, err)

	labels, err := s.Labels("img")
	require.NoError(t, err)
	assert.Equal(t, Labels{
		"4": {Label: "moderate", User: "ana", TS: 1700000000},
		"7": {Label: "bad", User: "ana", TS: 1700000000},
	}, labels)
}

func TestSaveLabel_Errors(t *testing.T) {
	s := openStore(t)

	_, err := s.SaveLabel("", 1, "good", "")
	assert.ErrorIs(t, err, superpixel.ErrInput)
	_, err = s.SaveLabel("img", -1, "good", "")
	assert.ErrorIs(t, err, superpixel.ErrInput)
	_, err = s.SaveLabel("img", 1, "  ", "")
	assert.ErrorIs(t, err, superpixel.ErrInput)
}

func TestSaveLabel_Concurrent(t *testing.T) {
	s := openStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := s.SaveLabel("img", id, "good", "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	labels, err := s.Labels("img")
	require.NoError(t, err)
	assert.Len(t, labels, 20)

	entries, err := os.ReadDir(filepath.Join(s.Root(), LabelsDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestSaveUpload(t *testing.T) {
	s := openStore(t)

	up, err := s.SaveUpload("../My Field #1.png", bytes.NewReader(encodedPNG(t, 4, 3)))
	require.NoError(t, err)

	assert.Len(t, up.ImageID, 36)
	assert.Equal(t, up.ImageID+"_My_Field_1.png", up.Filename)
	assert.Equal(t, up.ImageID, ImageIDOf(up.Filename))

	path, err := s.UploadPath(up.Filename)
	require.NoError(t, err)
	assert.Equal(t, up.Path, path)

	img, err := imaging.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
}

func TestSaveUpload_TIFFGetsPNGPreview(t *testing.T) {
	s := openStore(t)

	src := image.NewRGBA(image.Rect(0, 0, 5, 2))
	src.Set(1, 1, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, src, nil))

	up, err := s.SaveUpload("ortho.tif", &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(up.Filename, "_ortho.tif.png"))

	img, err := imaging.Decode(up.Path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 2), img.Bounds())

	_, err = os.Stat(filepath.Join(s.Root(), UploadsDir, up.ImageID+"_ortho.tif"))
	assert.NoError(t, err, "original is kept")
}

func TestSaveUpload_Errors(t *testing.T) {
	s := openStore(t)

	_, err := s.SaveUpload("notes.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, superpixel.ErrInput)

	_, err = s.SaveUpload("", strings.NewReader(""))
	assert.ErrorIs(t, err, superpixel.ErrInput)

	_, err = s.SaveUpload("broken.tiff", strings.NewReader("not a tiff"))
	assert.ErrorIs(t, err, superpixel.ErrInput)

	_, err = s.UploadPath("missing.png")
	assert.ErrorIs(t, err, superpixel.ErrNotFound)

	_, err = s.UploadPath("../secret.png")
	assert.ErrorIs(t, err, superpixel.ErrInput)

	_, err = s.ImportFile(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, superpixel.ErrNotFound)
}

func TestImportFile(t *testing.T) {
	s := openStore(t)
	src := filepath.Join(t.TempDir(), "tile_0_0.png")
	require.NoError(t, os.WriteFile(src, encodedPNG(t, 2, 2), 0o644))

	up, err := s.ImportFile(src)
	require.NoError(t, err)
	assert.Equal(t, up.ImageID+"_tile_0_0.png", up.Filename)
}

func TestSaveMask(t *testing.T) {
	s := openStore(t)
	mask := superpixel.NewClassMask(3, 2, 2).Image()

	path, err := s.SaveMask("img", mask)
	require.NoError(t, err)

	img, err := imaging.Decode(path)
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(2), gray.GrayAt(2, 1).Y)
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"field.png", "field.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\images\a b.jpg`, "a_b.jpg"},
		{".hidden.png", "hidden.png"},
		{"dröhne.tif", "dr_hne.tif"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.in))
		})
	}
}
