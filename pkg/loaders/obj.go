package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jpeterson/pathtracer/pkg/core"
)

// ObjMesh is the parsed geometry of a Wavefront OBJ file: a shared vertex
// array plus a flat, fan-triangulated face index list ready for
// geometry.NewTriangleMesh.
type ObjMesh struct {
	Vertices []core.Vec3
	UVs      []core.Vec2 // parallel to Vertices when present, zero otherwise
	Normals  []core.Vec3 // parallel to Vertices: parsed vn, or smoothed face normals when absent
	Faces    []int       // triangle index triples
}

// parseError mirrors the line-and-context shape of a parser diagnostic, per
// spec.md §7's "wrapped diagnostic error chains at config/load boundaries".
type parseError struct {
	line int
	text string
	msg  string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("line %d: %s\n    %s", e.line, e.msg, e.text)
}

// LoadOBJ parses a Wavefront OBJ file's geometry: vertex positions (v),
// texture coordinates (vt), vertex normals (vn), and faces (f), triangulating
// any polygon with more than 3 vertices by fan triangulation. Materials
// (mtllib/usemtl) and groups are intentionally not modeled — this renderer
// takes materials from the scene document, not the mesh file. A mesh with no
// vn directives gets smoothed per-vertex normals synthesized by accumulating
// each referencing face's geometric normal and normalizing.
func LoadOBJ(path string) (*ObjMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loaders: opening obj file %q", path)
	}
	defer f.Close()

	var rawVerts []core.Vec3
	var rawUVs []core.Vec2
	var rawNormals []core.Vec3
	haveUVs := false
	haveNormals := false

	type faceVert struct {
		vertex, uv, normal int // 1-based; 0 means unspecified
	}
	var faceLines [][]faceVert

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		directive := fields[0]
		rest := fields[1:]

		switch directive {
		case "v":
			v, err := parseVec3(rest)
			if err != nil {
				return nil, errors.Wrap(&parseError{lineNo, line, err.Error()}, "loaders: parsing vertex")
			}
			rawVerts = append(rawVerts, v)
		case "vt":
			uv, err := parseVec2(rest)
			if err != nil {
				return nil, errors.Wrap(&parseError{lineNo, line, err.Error()}, "loaders: parsing texture coordinate")
			}
			rawUVs = append(rawUVs, uv)
			haveUVs = true
		case "vn":
			n, err := parseVec3(rest)
			if err != nil {
				return nil, errors.Wrap(&parseError{lineNo, line, err.Error()}, "loaders: parsing vertex normal")
			}
			rawNormals = append(rawNormals, n.Normalize())
			haveNormals = true
		case "f":
			if len(rest) < 3 {
				return nil, &parseError{lineNo, line, "face must reference at least 3 vertices"}
			}
			verts := make([]faceVert, len(rest))
			for i, token := range rest {
				fv, err := parseFaceVert(token, len(rawVerts), len(rawUVs), len(rawNormals))
				if err != nil {
					return nil, errors.Wrap(&parseError{lineNo, line, err.Error()}, "loaders: parsing face")
				}
				verts[i] = fv
			}
			faceLines = append(faceLines, verts)
		default:
			// mtllib, usemtl, g, o, s: not modeled.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "loaders: reading obj file %q", path)
	}

	mesh := &ObjMesh{Vertices: rawVerts}
	if haveUVs {
		mesh.UVs = make([]core.Vec2, len(rawVerts))
	}
	if haveNormals {
		mesh.Normals = make([]core.Vec3, len(rawVerts))
	}

	for _, verts := range faceLines {
		for i := 1; i+1 < len(verts); i++ {
			tri := [3]faceVert{verts[0], verts[i], verts[i+1]}
			for _, fv := range tri {
				mesh.Faces = append(mesh.Faces, fv.vertex-1)
				if haveUVs && fv.uv > 0 {
					mesh.UVs[fv.vertex-1] = rawUVs[fv.uv-1]
				}
				if haveNormals && fv.normal > 0 {
					mesh.Normals[fv.vertex-1] = rawNormals[fv.normal-1]
				}
			}
		}
	}

	if !haveNormals && len(mesh.Faces) > 0 {
		mesh.Normals = smoothedNormals(rawVerts, mesh.Faces)
	}

	return mesh, nil
}

// smoothedNormals synthesizes a per-vertex normal for meshes with no vn
// directives, by accumulating each referencing face's un-normalized
// (area-weighted) geometric normal into its three vertices and normalizing.
func smoothedNormals(verts []core.Vec3, faces []int) []core.Vec3 {
	normals := make([]core.Vec3, len(verts))
	for i := 0; i+2 < len(faces); i += 3 {
		i0, i1, i2 := faces[i], faces[i+1], faces[i+2]
		n := verts[i1].Subtract(verts[i0]).Cross(verts[i2].Subtract(verts[i0]))
		normals[i0] = normals[i0].Add(n)
		normals[i1] = normals[i1].Add(n)
		normals[i2] = normals[i2].Add(n)
	}
	for i, n := range normals {
		if n.LengthSquared() > 0 {
			normals[i] = n.Normalize()
		}
	}
	return normals
}

func parseVec3(fields []string) (core.Vec3, error) {
	if len(fields) < 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Vec3{}, fmt.Errorf("invalid X: %v", err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Vec3{}, fmt.Errorf("invalid Y: %v", err)
	}
	z, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return core.Vec3{}, fmt.Errorf("invalid Z: %v", err)
	}
	return core.NewVec3(x, y, z), nil
}

func parseVec2(fields []string) (core.Vec2, error) {
	if len(fields) < 2 {
		return core.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	u, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Vec2{}, fmt.Errorf("invalid U: %v", err)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Vec2{}, fmt.Errorf("invalid V: %v", err)
	}
	return core.NewVec2(u, v), nil
}

func parseFaceVert(token string, numVerts, numUVs, numNormals int) (struct{ vertex, uv, normal int }, error) {
	parts := strings.Split(token, "/")
	var v, vt, vn int

	resolve := func(s string, size int) (int, error) {
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid index %q: %v", s, err)
		}
		if n < 0 {
			n = size + n + 1
		}
		if n < 1 || n > size {
			return 0, fmt.Errorf("index %d out of range (1..%d)", n, size)
		}
		return n, nil
	}

	var err error
	v, err = resolve(parts[0], numVerts)
	if err != nil {
		return struct{ vertex, uv, normal int }{}, err
	}
	if len(parts) >= 2 {
		vt, err = resolve(parts[1], numUVs)
		if err != nil {
			return struct{ vertex, uv, normal int }{}, err
		}
	}
	if len(parts) >= 3 {
		vn, err = resolve(parts[2], numNormals)
		if err != nil {
			return struct{ vertex, uv, normal int }{}, err
		}
	}
	return struct{ vertex, uv, normal int }{vertex: v, uv: vt, normal: vn}, nil
}
