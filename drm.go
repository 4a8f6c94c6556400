package epubsplit

import (
	"archive/zip"
	"encoding/xml"
	"strings"
)

const (
	encryptionPath = "META-INF/encryption.xml"
	fairPlayPath   = "META-INF/sinf.xml"
)

// fontObfuscation lists the encryption algorithms that only mangle
// embedded fonts. Sources using them can still be split.
var fontObfuscation = map[string]bool{
	"http://www.idpf.org/2008/embedding": true,
	"http://ns.adobe.com/pdf/enc#RC":     true,
}

type encryptionDoc struct {
	XMLName xml.Name `xml:"encryption"`
	Data    []struct {
		Method struct {
			Algorithm string `xml:"Algorithm,attr"`
		} `xml:"EncryptionMethod"`
	} `xml:"EncryptedData"`
}

// sourceEncryption inspects the source archive for DRM before anything is
// written to disk. It returns ErrDRMProtected for FairPlay, an unparsable
// encryption.xml, or any encrypted resource that is not font obfuscation.
// fonts reports whether obfuscated fonts were seen.
func sourceEncryption(zr *zip.Reader) (fonts bool, err error) {
	if findFileInsensitive(zr, fairPlayPath) != nil {
		return false, ErrDRMProtected
	}
	f := findFileInsensitive(zr, encryptionPath)
	if f == nil {
		return false, nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return false, err
	}

	var enc encryptionDoc
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		return false, ErrDRMProtected
	}
	for _, d := range enc.Data {
		if !fontObfuscation[strings.TrimSpace(d.Method.Algorithm)] {
			return false, ErrDRMProtected
		}
		fonts = true
	}
	return fonts, nil
}
