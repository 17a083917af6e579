package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/chewxy/math32"
)

// ErrNotHDR is returned when data does not carry a Radiance RGBE header.
var ErrNotHDR = errors.New("data is not a Radiance HDR image")

const (
	hdrMaxHeaderBytes = 64 * 1024
	hdrMinRLEWidth    = 8
	hdrMaxRLEWidth    = 0x7fff

	// Largest accepted image. Wider maps are far past what an environment texture needs.
	hdrMaxWidth  = 32768
	hdrMaxHeight = 16384

	// Pixel storage reserved up front; larger images grow as scanlines arrive.
	hdrPreallocFloats = 2048 * 1024 * 4
)

// EnvironmentMap is a decoded equirectangular environment image in linear float RGBA.
type EnvironmentMap struct {
	common.FloatImage

	// Exposure is the EXPOSURE header value, 1 when absent.
	Exposure float32
}

// DecodeHDR parses a Radiance RGBE (.hdr) image. Both flat and new-style run-length encoded scanlines
// are accepted. Only the standard -Y h +X w orientation is supported.
// Reference: https://radsite.lbl.gov/radiance/refer/filefmts.pdf
//
// Parameters:
//   - r: the encoded image
//
// Returns:
//   - EnvironmentMap: the decoded image with alpha set to 1
//   - error: ErrNotHDR for foreign data, or a format error
func DecodeHDR(r io.Reader) (EnvironmentMap, error) {
	br := bufio.NewReader(r)

	exposure, err := readHDRHeader(br)
	if err != nil {
		return EnvironmentMap{}, err
	}
	width, height, err := readHDRResolution(br)
	if err != nil {
		return EnvironmentMap{}, err
	}

	// The header size is untrusted, so memory follows the scanlines actually read.
	pixels := make([]float32, 0, min(width*height*4, hdrPreallocFloats))
	scanline := make([]byte, width*4)
	row := make([]float32, width*4)
	for y := range height {
		if err := readHDRScanline(br, scanline); err != nil {
			return EnvironmentMap{}, fmt.Errorf("scanline %d: %w", y, err)
		}
		for x := range width {
			rgbeToFloat(scanline[x*4:x*4+4], row[x*4:x*4+4])
		}
		pixels = append(pixels, row...)
	}

	return EnvironmentMap{
		FloatImage: common.FloatImage{
			Pixels: pixels,
			Width:  width,
			Height: height,
		},
		Exposure: exposure,
	}, nil
}

// readHDRHeader consumes the magic line and header variables up to the blank line.
func readHDRHeader(br *bufio.Reader) (float32, error) {
	first, err := br.ReadString('\n')
	if err != nil {
		return 0, ErrNotHDR
	}
	first = strings.TrimSpace(first)
	if first != "#?RADIANCE" && first != "#?RGBE" {
		return 0, ErrNotHDR
	}

	exposure := float32(1)
	read := len(first)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("unterminated header: %w", err)
		}
		read += len(line)
		if read > hdrMaxHeaderBytes {
			return 0, fmt.Errorf("header exceeds %d bytes", hdrMaxHeaderBytes)
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			return exposure, nil
		case strings.HasPrefix(line, "FORMAT="):
			if format := strings.TrimPrefix(line, "FORMAT="); format != "32-bit_rle_rgbe" {
				return 0, fmt.Errorf("unsupported format %q", format)
			}
		case strings.HasPrefix(line, "EXPOSURE="):
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "EXPOSURE=")), 32)
			if err != nil {
				return 0, fmt.Errorf("bad exposure %q: %w", line, err)
			}
			// Multiple EXPOSURE lines are cumulative.
			exposure *= float32(v)
		}
	}
}

// readHDRResolution parses the "-Y <height> +X <width>" line.
func readHDRResolution(br *bufio.Reader) (int, int, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return 0, 0, fmt.Errorf("missing resolution line: %w", err)
	}

	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
		return 0, 0, fmt.Errorf("unsupported resolution line %q", strings.TrimSpace(line))
	}
	height, errH := strconv.Atoi(fields[1])
	width, errW := strconv.Atoi(fields[3])
	if errH != nil || errW != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("bad resolution %q", strings.TrimSpace(line))
	}
	if width > hdrMaxWidth || height > hdrMaxHeight {
		return 0, 0, fmt.Errorf("resolution %dx%d exceeds %dx%d", width, height, hdrMaxWidth, hdrMaxHeight)
	}
	return width, height, nil
}

// readHDRScanline fills dst with one scanline of interleaved RGBE bytes.
func readHDRScanline(br *bufio.Reader, dst []byte) error {
	width := len(dst) / 4
	if width < hdrMinRLEWidth || width > hdrMaxRLEWidth {
		_, err := io.ReadFull(br, dst)
		return err
	}

	head, err := br.Peek(4)
	if err != nil {
		return err
	}
	if head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		_, err := io.ReadFull(br, dst)
		return err
	}
	if int(head[2])<<8|int(head[3]) != width {
		return fmt.Errorf("encoded width %d does not match image width %d", int(head[2])<<8|int(head[3]), width)
	}
	if _, err := br.Discard(4); err != nil {
		return err
	}

	// New-style RLE stores each channel as its own run sequence.
	channel := make([]byte, width)
	for c := range 4 {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				run := int(count - 128)
				if x+run > width {
					return errors.New("run overflows scanline")
				}
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				for i := range run {
					channel[x+i] = v
				}
				x += run
				continue
			}

			n := int(count)
			if n == 0 || x+n > width {
				return errors.New("bad literal run length")
			}
			if _, err := io.ReadFull(br, channel[x:x+n]); err != nil {
				return err
			}
			x += n
		}
		for x := range width {
			dst[x*4+c] = channel[x]
		}
	}
	return nil
}

// rgbeToFloat converts one shared-exponent pixel to linear RGBA.
func rgbeToFloat(rgbe []byte, out []float32) {
	out[3] = 1
	if rgbe[3] == 0 {
		out[0], out[1], out[2] = 0, 0, 0
		return
	}
	scale := math32.Ldexp(1, int(rgbe[3])-128) / 255
	out[0] = float32(rgbe[0]) * scale
	out[1] = float32(rgbe[1]) * scale
	out[2] = float32(rgbe[2]) * scale
}

// isHDR reports whether data starts with a Radiance signature.
func isHDR(data []byte) bool {
	return bytes.HasPrefix(data, []byte("#?RADIANCE")) || bytes.HasPrefix(data, []byte("#?RGBE"))
}
