package extract

import "encoding/binary"

// probeDimensions reads pixel dimensions straight from format headers so
// no image needs to be fully decoded. Returns (0, 0) when the format is
// unknown or the header is truncated; callers treat that as below the
// OCR floor.
func probeDimensions(data []byte, ext string) (int, int) {
	switch ext {
	case "png":
		return pngDimensions(data)
	case "jpg", "jpeg":
		return jpegDimensions(data)
	case "gif":
		return gifDimensions(data)
	case "bmp":
		return bmpDimensions(data)
	case "ico":
		return icoDimensions(data)
	case "webp":
		return webpDimensions(data)
	case "tiff", "tif":
		return tiffDimensions(data)
	default:
		return 0, 0
	}
}

func pngDimensions(data []byte) (int, int) {
	// signature (8) + IHDR length/type (8) + width/height
	if len(data) < 24 || string(data[1:4]) != "PNG" {
		return 0, 0
	}
	w := binary.BigEndian.Uint32(data[16:20])
	h := binary.BigEndian.Uint32(data[20:24])
	return int(w), int(h)
}

func gifDimensions(data []byte) (int, int) {
	if len(data) < 10 || string(data[:3]) != "GIF" {
		return 0, 0
	}
	w := binary.LittleEndian.Uint16(data[6:8])
	h := binary.LittleEndian.Uint16(data[8:10])
	return int(w), int(h)
}

func bmpDimensions(data []byte) (int, int) {
	if len(data) < 26 || data[0] != 'B' || data[1] != 'M' {
		return 0, 0
	}
	w := int32(binary.LittleEndian.Uint32(data[18:22]))
	h := int32(binary.LittleEndian.Uint32(data[22:26]))
	if h < 0 { // top-down bitmaps store negative height
		h = -h
	}
	if w < 0 {
		return 0, 0
	}
	return int(w), int(h)
}

func icoDimensions(data []byte) (int, int) {
	// first directory entry; 0 means 256
	if len(data) < 8 || data[0] != 0 || data[1] != 0 || data[2] != 1 {
		return 0, 0
	}
	w, h := int(data[6]), int(data[7])
	if w == 0 {
		w = 256
	}
	if h == 0 {
		h = 256
	}
	return w, h
}

// jpegDimensions walks segment markers to the first SOF frame header.
func jpegDimensions(data []byte) (int, int) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, 0
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		marker := data[pos+1]
		// standalone markers without a length field
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			pos += 2
			continue
		}
		if pos+4 > len(data) {
			return 0, 0
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if isSOFMarker(marker) {
			if pos+9 > len(data) {
				return 0, 0
			}
			h := binary.BigEndian.Uint16(data[pos+5 : pos+7])
			w := binary.BigEndian.Uint16(data[pos+7 : pos+9])
			return int(w), int(h)
		}
		pos += 2 + length
	}
	return 0, 0
}

func isSOFMarker(m byte) bool {
	// SOF0..SOF15 excluding DHT (C4), JPG (C8) and DAC (CC)
	return m >= 0xC0 && m <= 0xCF && m != 0xC4 && m != 0xC8 && m != 0xCC
}

func webpDimensions(data []byte) (int, int) {
	if len(data) < 30 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return 0, 0
	}
	switch string(data[12:16]) {
	case "VP8X":
		w := int(data[24]) | int(data[25])<<8 | int(data[26])<<16
		h := int(data[27]) | int(data[28])<<8 | int(data[29])<<16
		return w + 1, h + 1
	case "VP8 ":
		w := int(binary.LittleEndian.Uint16(data[26:28])) & 0x3FFF
		h := int(binary.LittleEndian.Uint16(data[28:30])) & 0x3FFF
		return w, h
	case "VP8L":
		if len(data) < 25 || data[20] != 0x2F {
			return 0, 0
		}
		bits := binary.LittleEndian.Uint32(data[21:25])
		w := int(bits&0x3FFF) + 1
		h := int((bits>>14)&0x3FFF) + 1
		return w, h
	}
	return 0, 0
}

// tiffDimensions parses the first IFD for the width/length tags.
func tiffDimensions(data []byte) (int, int) {
	if len(data) < 8 {
		return 0, 0
	}
	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return 0, 0
	}
	ifdOffset := int(order.Uint32(data[4:8]))
	if ifdOffset+2 > len(data) {
		return 0, 0
	}
	count := int(order.Uint16(data[ifdOffset : ifdOffset+2]))
	width, height := 0, 0
	for i := 0; i < count; i++ {
		entry := ifdOffset + 2 + i*12
		if entry+12 > len(data) {
			break
		}
		tag := order.Uint16(data[entry : entry+2])
		typ := order.Uint16(data[entry+2 : entry+4])
		var value int
		switch typ {
		case 3: // SHORT
			value = int(order.Uint16(data[entry+8 : entry+10]))
		case 4: // LONG
			value = int(order.Uint32(data[entry+8 : entry+12]))
		default:
			continue
		}
		switch tag {
		case 256:
			width = value
		case 257:
			height = value
		}
	}
	return width, height
}
