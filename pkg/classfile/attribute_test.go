package classfile

import "testing"

func onePool(t *testing.T, utf8s ...string) *ConstantPool {
	t.Helper()
	var entries []byte
	for _, s := range utf8s {
		entries = append(entries, utf8Entry(s)...)
	}
	return buildPool(t, uint16(len(utf8s)+1), entries)
}

func TestDecodeSourceFileAttribute(t *testing.T) {
	pool := onePool(t, "SourceFile", "Main.java")
	attr, err := DecodeAttribute(pool, "SourceFile", []byte{0x00, 0x02})
	if err != nil {
		t.Fatalf("DecodeAttribute: %v", err)
	}
	sf, ok := attr.(*SourceFileAttribute)
	if !ok || sf.Value != "Main.java" {
		t.Fatalf("got %#v, want SourceFileAttribute(Main.java)", attr)
	}
}

func TestDecodeLineNumberTableAttribute(t *testing.T) {
	pool := onePool(t, "x")
	body := []byte{
		0x00, 0x02, // count = 2
		0x00, 0x00, 0x00, 0x01, // start_pc=0, line=1
		0x00, 0x05, 0x00, 0x02, // start_pc=5, line=2
	}
	attr, err := DecodeAttribute(pool, "LineNumberTable", body)
	if err != nil {
		t.Fatalf("DecodeAttribute: %v", err)
	}
	lnt, ok := attr.(*LineNumberTableAttribute)
	if !ok || len(lnt.Entries) != 2 {
		t.Fatalf("got %#v, want 2 entries", attr)
	}
	if lnt.Entries[1].StartPC != 5 || lnt.Entries[1].Line != 2 {
		t.Fatalf("Entries[1] = %#v", lnt.Entries[1])
	}
}

// S6: an attribute named "Synthetic" with length 7 and bytes 01..07
// round-trips as BlobAttribute("Synthetic", [01..07]).
func TestUnknownAttributeScenarioS6(t *testing.T) {
	pool := onePool(t, "x")
	data := []byte{1, 2, 3, 4, 5, 6, 7}
	attr, err := DecodeAttribute(pool, "Synthetic", data)
	if err != nil {
		t.Fatalf("DecodeAttribute: %v", err)
	}
	blob, ok := attr.(*BlobAttribute)
	if !ok || blob.Name != "Synthetic" || len(blob.Data) != 7 {
		t.Fatalf("got %#v, want BlobAttribute(Synthetic, 7 bytes)", attr)
	}
	for i, b := range blob.Data {
		if b != byte(i+1) {
			t.Fatalf("Data[%d] = %d, want %d", i, b, i+1)
		}
	}
}

func TestCodeAttributeStaysOpaque(t *testing.T) {
	pool := onePool(t, "x")
	data := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	attr, err := DecodeAttribute(pool, "Code", data)
	if err != nil {
		t.Fatalf("DecodeAttribute: %v", err)
	}
	if blob, ok := attr.(*BlobAttribute); !ok || blob.Name != "Code" {
		t.Fatalf("got %#v, want BlobAttribute(Code, ...)", attr)
	}
}

func TestDecodeConstantValueAttribute(t *testing.T) {
	// pool index 1 is an Integer constant.
	entries := []byte{TagInteger, 0, 0, 0, 42}
	pool := buildPool(t, 2, entries)
	attr, err := DecodeAttribute(pool, "ConstantValue", []byte{0x00, 0x01})
	if err != nil {
		t.Fatalf("DecodeAttribute: %v", err)
	}
	cv, ok := attr.(*ConstantValueAttribute)
	if !ok || cv.Value.(int32) != 42 {
		t.Fatalf("got %#v, want ConstantValueAttribute(42)", attr)
	}
}
