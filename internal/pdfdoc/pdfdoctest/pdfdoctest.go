// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoctest builds small, well-formed PDF files for tests.
//
// The files hold a catalog, an empty page tree with the requested page
// count, an optional info dictionary and an optional XMP stream. The
// cross-reference table carries exact byte offsets. Encrypted files use the
// standard security handler, revision 2 (40-bit RC4) or revision 6
// (AES-256). Encrypted files carry no info dictionary or XMP stream, so no
// object data needs encrypting.
package pdfdoctest

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"
	"unicode/utf16"
)

// Options describes the document to build.
type Options struct {
	// Version is the header version; "1.4" when empty.
	Version string
	// Pages is the /Count of the page tree.
	Pages int
	// Info entries are written as strings. A nil map writes no /Info.
	Info map[string]string
	// XMP is the metadata stream content. Empty writes no stream.
	XMP string
	// Encrypt adds an encryption dictionary whose user password is
	// UserPassword (possibly empty).
	Encrypt      bool
	UserPassword string
	// AES256 selects the revision 6 handler for an encrypted file.
	AES256 bool
}

// passwordPad is the 32-byte padding from the standard security handler.
var passwordPad = []byte{
	0x28, 0xbf, 0x4e, 0x5e, 0x4e, 0x75, 0x8a, 0x41, 0x64, 0x00, 0x4e, 0x56,
	0xff, 0xfa, 0x01, 0x08, 0x2e, 0x2e, 0x00, 0xb6, 0xd0, 0x68, 0x3e, 0x80,
	0x2f, 0x0c, 0xa9, 0xfe, 0x64, 0x53, 0x69, 0x7a,
}

// permissions is the /P value: every access bit set except the two low
// reserved bits.
const permissions int32 = -4

// Build returns the PDF bytes.
func Build(opts Options) []byte {
	version := opts.Version
	if version == "" {
		version = "1.4"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)

	var offsets []int
	add := func(body string) int {
		offsets = append(offsets, buf.Len())
		n := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
		return n
	}

	infoNum, xmpNum := 0, 0
	catalog := "<< /Type /Catalog /Pages 2 0 R"
	if opts.XMP != "" && !opts.Encrypt {
		xmpNum = 3
		if opts.Info != nil {
			xmpNum = 4
		}
		catalog += fmt.Sprintf(" /Metadata %d 0 R", xmpNum)
	}
	catalog += " >>"

	add(catalog)
	add(fmt.Sprintf("<< /Type /Pages /Kids [] /Count %d >>", opts.Pages))
	if opts.Info != nil && !opts.Encrypt {
		infoNum = add(infoDict(opts.Info))
	}
	if xmpNum != 0 {
		add(fmt.Sprintf("<< /Type /Metadata /Subtype /XML /Length %d >>\nstream\n%s\nendstream", len(opts.XMP), opts.XMP))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R", len(offsets)+1)
	if infoNum != 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", infoNum)
	}
	switch {
	case opts.Encrypt && opts.AES256:
		buf.WriteString(aesEncryptEntries(opts.UserPassword))
	case opts.Encrypt:
		buf.WriteString(encryptEntries(opts.UserPassword))
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// Garbage returns bytes that are not a PDF.
func Garbage() []byte {
	return bytes.Repeat([]byte("this is not a PDF document. "), 8)
}

func infoDict(info map[string]string) string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	b.WriteString("<<")
	for _, k := range keys {
		fmt.Fprintf(&b, " /%s %s", k, pdfString(info[k]))
	}
	b.WriteString(" >>")
	return b.String()
}

// pdfString writes ASCII text as a literal string and anything else as a
// UTF-16BE hex string with a byte order mark.
func pdfString(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 || s[i] < 0x20 {
			ascii = false
			break
		}
	}
	if ascii {
		var b bytes.Buffer
		b.WriteByte('(')
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '(', ')', '\\':
				b.WriteByte('\\')
			}
			b.WriteByte(s[i])
		}
		b.WriteByte(')')
		return b.String()
	}

	var b bytes.Buffer
	b.WriteString("<FEFF")
	for _, u := range utf16.Encode([]rune(s)) {
		fmt.Fprintf(&b, "%04X", u)
	}
	b.WriteByte('>')
	return b.String()
}

// encryptEntries returns the /Encrypt and /ID trailer entries for a
// revision 2 handler with the given user password.
func encryptEntries(userPassword string) string {
	id := []byte("pdfmeta-test-id!")
	owner := bytes.Repeat([]byte{0x42}, 32)
	perm := permissions
	p := uint32(perm)

	h := md5.New()
	h.Write(pad(userPassword))
	h.Write(owner)
	h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	h.Write(id)
	key := h.Sum(nil)[:5]

	c, err := rc4.NewCipher(key)
	if err != nil {
		panic(err)
	}
	user := make([]byte, 32)
	c.XORKeyStream(user, passwordPad)

	return fmt.Sprintf(" /Encrypt << /Filter /Standard /V 1 /R 2 /Length 40 /P %d /O <%X> /U <%X> >> /ID [<%X> <%X>]",
		permissions, owner, user, id, id)
}

func pad(password string) []byte {
	out := make([]byte, 0, 32)
	out = append(out, password...)
	if len(out) > 32 {
		return out[:32]
	}
	return append(out, passwordPad[:32-len(out)]...)
}

// ownerPassword is the owner password of every AES-256 file.
const ownerPassword = "pdfmeta-owner"

// aesEncryptEntries returns the /Encrypt and /ID trailer entries for a
// revision 6 handler. Salts and the file key are fixed so output is
// reproducible.
func aesEncryptEntries(userPassword string) string {
	id := []byte("pdfmeta-test-id!")
	fileKey := bytes.Repeat([]byte{0x5a}, 32)
	uValSalt, uKeySalt := []byte("uvalsalt"), []byte("ukeysalt")
	oValSalt, oKeySalt := []byte("ovalsalt"), []byte("okeysalt")

	upw := []byte(userPassword)
	u := append(hashRev6(upw, uValSalt, nil), uValSalt...)
	u = append(u, uKeySalt...)
	ue := encryptCBC(hashRev6(upw, uKeySalt, nil), fileKey)

	opw := []byte(ownerPassword)
	o := append(hashRev6(opw, oValSalt, u), oValSalt...)
	o = append(o, oKeySalt...)
	oe := encryptCBC(hashRev6(opw, oKeySalt, u), fileKey)

	perm := permissions
	p := uint32(perm)
	perms := []byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24), 0xff, 0xff, 0xff, 0xff, 'T', 'a', 'd', 'b', 0, 0, 0, 0}
	block, err := aes.NewCipher(fileKey)
	if err != nil {
		panic(err)
	}
	block.Encrypt(perms, perms)

	return fmt.Sprintf(" /Encrypt << /Filter /Standard /V 5 /R 6 /Length 256"+
		" /CF << /StdCF << /AuthEvent /DocOpen /CFM /AESV3 /Length 32 >> >> /StmF /StdCF /StrF /StdCF"+
		" /P %d /O <%X> /U <%X> /OE <%X> /UE <%X> /Perms <%X> >> /ID [<%X> <%X>]",
		permissions, o, u, oe, ue, perms, id, id)
}

// hashRev6 is the revision 6 password hash: SHA-256 of password, salt and
// user key, then AES-128-CBC and SHA-2 rounds until the exit condition on
// the last encrypted byte holds.
func hashRev6(password, salt, userKey []byte) []byte {
	h := sha256.New()
	h.Write(password)
	h.Write(salt)
	h.Write(userKey)
	k := h.Sum(nil)

	for round := 0; ; {
		var seq []byte
		seq = append(seq, password...)
		seq = append(seq, k...)
		seq = append(seq, userKey...)
		k1 := bytes.Repeat(seq, 64)

		block, err := aes.NewCipher(k[:16])
		if err != nil {
			panic(err)
		}
		e := make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(e, k1)

		sum := 0
		for _, b := range e[:16] {
			sum += int(b)
		}
		var next hash.Hash
		switch sum % 3 {
		case 0:
			next = sha256.New()
		case 1:
			next = sha512.New384()
		default:
			next = sha512.New()
		}
		next.Write(e)
		k = next.Sum(nil)

		round++
		if round >= 64 && int(e[len(e)-1])+32 <= round {
			break
		}
	}
	return k[:32]
}

// encryptCBC encrypts a block-aligned plaintext with AES-256-CBC and a zero
// IV.
func encryptCBC(key, plain []byte) []byte {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, plain)
	return out
}
