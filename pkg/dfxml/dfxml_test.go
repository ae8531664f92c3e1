package dfxml

import (
	"bytes"
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadVolumeObjectRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := NewDFXMLWriter(&buf)
	require.NoError(t, w.WriteHeader(DFXMLHeader{
		XmlOutput: XmlOutputVersion,
		Metadata:  DefaultMetadata,
		Creator:   Creator{Package: "bootvol", Version: "test"},
		Source:    Source{ImageFilename: "disk.img"},
	}))

	name := xml.Name{Local: "volumeobject"}
	want := []VolumeObject{
		{XMLName: name, VolNumber: 0, VolName: "EFI System", FSType: "FAT32", IsReadable: true, HasBootCode: true},
		{XMLName: name, VolNumber: UnreadableVolNumberForTest, VolName: "", FSType: "Unknown", IsReadable: false},
	}
	for _, obj := range want {
		require.NoError(t, w.WriteVolumeObject(obj))
	}
	require.NoError(t, w.Close())

	got, err := ReadVolumeObjects(&buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// UnreadableVolNumberForTest mirrors internal/volume.UnreadableVolNumber
// without importing internal/volume, the same way internal/config
// avoids that import for its sample-size default.
const UnreadableVolNumberForTest = -1
