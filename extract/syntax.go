package extract

// TransferSyntax is the 2-element transfer-syntax descriptor carried from the
// source file to the writer: byte order plus explicit/implicit VR encoding.
// The UID is kept so the output serializes with the original byte layout.
type TransferSyntax struct {
	UID          string
	LittleEndian bool
	ExplicitVR   bool
}

const (
	implicitVRLittleEndian = "1.2.840.10008.1.2"
	explicitVRLittleEndian = "1.2.840.10008.1.2.1"
	explicitVRBigEndian    = "1.2.840.10008.1.2.2"
)

// transferSyntaxFromUID maps a transfer syntax UID to its descriptor.
// Unrecognized (compressed) syntaxes report explicit little endian, which is
// how every encapsulated syntax encodes its data elements.
func transferSyntaxFromUID(uid string) TransferSyntax {
	switch uid {
	case implicitVRLittleEndian:
		return TransferSyntax{UID: uid, LittleEndian: true, ExplicitVR: false}
	case explicitVRBigEndian:
		return TransferSyntax{UID: uid, LittleEndian: false, ExplicitVR: true}
	default:
		return TransferSyntax{UID: uid, LittleEndian: true, ExplicitVR: true}
	}
}
