package loaders

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/geometry"
	"github.com/jpeterson/pathtracer/pkg/lights"
	"github.com/jpeterson/pathtracer/pkg/material"
	"github.com/jpeterson/pathtracer/pkg/scene"
)

// intOrList decodes SamplesPerPixel's two accepted shapes: a bare integer, or
// a list of integers (spec.md §6).
type intOrList []int

func (l *intOrList) UnmarshalYAML(node *yaml.Node) error {
	var single int
	if err := node.Decode(&single); err == nil {
		*l = []int{single}
		return nil
	}
	var many []int
	if err := node.Decode(&many); err != nil {
		return errors.New("loaders: samplesPerPixel must be an integer or a list of integers")
	}
	*l = many
	return nil
}

// colorDoc decodes a color as either a [r,g,b] array or a "#rrggbb" hex
// string (converted from sRGB to linear on load).
type colorDoc core.Vec3

func (c *colorDoc) UnmarshalYAML(node *yaml.Node) error {
	var arr [3]float64
	if err := node.Decode(&arr); err == nil {
		*c = colorDoc{X: arr[0], Y: arr[1], Z: arr[2]}
		return nil
	}
	var hex string
	if err := node.Decode(&hex); err != nil {
		return errors.New("loaders: color must be a [r,g,b] array or a hex string")
	}
	parsed, err := colorful.Hex(hex)
	if err != nil {
		return errors.Wrapf(err, "loaders: parsing color %q", hex)
	}
	*c = colorDoc{X: srgbToLinear(parsed.R), Y: srgbToLinear(parsed.G), Z: srgbToLinear(parsed.B)}
	return nil
}

func (c colorDoc) vec3() core.Vec3 { return core.Vec3(c) }

type colorBlockDoc struct {
	Color colorDoc `yaml:"color"`
}

type bvhDoc struct {
	SplitMethod string `yaml:"splitMethod"`
}

type cameraDoc struct {
	Position     [3]float64 `yaml:"position"`
	Rotation     [3]float64 `yaml:"rotation"` // degrees: (pitch, yaw, roll)
	Vfov         float64    `yaml:"vfov"`     // degrees
	AspectRatio  float64    `yaml:"aspectRatio"`
	Exposure     float64    `yaml:"exposure"`
	Gamma        float64    `yaml:"gamma"`
	Antialiasing string     `yaml:"antialiasing"`
}

type materialDoc struct {
	Name          string   `yaml:"name"`
	Albedo        colorDoc `yaml:"albedo"`
	Ks            colorDoc `yaml:"Ks"`
	Ns            float64  `yaml:"Ns"`
	Ke            colorDoc `yaml:"Ke"`
	Tr            colorDoc `yaml:"Tr"`
	IOR           float64  `yaml:"ior"`
	AlbedoTexture string   `yaml:"albedoTexture"`
}

type textureDoc struct {
	Name           string `yaml:"name"`
	Filename       string `yaml:"filename"`
	FlipVertically bool   `yaml:"flipVertically"`
}

type modelDoc struct {
	Name     string `yaml:"name"`
	Filename string `yaml:"filename"`
}

type transformDoc struct {
	Position [3]float64 `yaml:"position"`
	Rotation [3]float64 `yaml:"rotation"` // degrees: (x, y, z)
	Scale    [3]float64 `yaml:"scale"`
}

func (t transformDoc) scaleOrUnit() core.Vec3 {
	if t.Scale == ([3]float64{}) {
		return core.NewVec3(1, 1, 1)
	}
	return core.NewVec3(t.Scale[0], t.Scale[1], t.Scale[2])
}

// apply transforms a local-space point by scale, then rotation (X then Y
// then Z, matching the camera basis's yaw/pitch composition extended with
// roll), then translation.
func (t transformDoc) apply(p core.Vec3) core.Vec3 {
	s := t.scaleOrUnit()
	p = core.NewVec3(p.X*s.X, p.Y*s.Y, p.Z*s.Z)
	p = rotateX(p, degToRad(t.Rotation[0]))
	p = rotateY(p, degToRad(t.Rotation[1]))
	p = rotateZ(p, degToRad(t.Rotation[2]))
	return p.Add(core.NewVec3(t.Position[0], t.Position[1], t.Position[2]))
}

// applyNormal rotates a direction by the same X-then-Y-then-Z composition as
// apply, without scale or translation, and renormalizes — sufficient for the
// uniform/near-uniform scales sphereDoc/modelInstanceDoc actually use.
func (t transformDoc) applyNormal(n core.Vec3) core.Vec3 {
	n = rotateX(n, degToRad(t.Rotation[0]))
	n = rotateY(n, degToRad(t.Rotation[1]))
	n = rotateZ(n, degToRad(t.Rotation[2]))
	return n.Normalize()
}

type modelInstanceDoc struct {
	Transform transformDoc `yaml:"transform"`
	Model     string       `yaml:"model"`
	Material  string       `yaml:"material"`
}

type sphereDoc struct {
	Transform transformDoc `yaml:"transform"`
	Material  string       `yaml:"material"`
}

type pointLightDoc struct {
	Color    colorDoc   `yaml:"color"`
	Position [3]float64 `yaml:"position"`
}

type directionalLightDoc struct {
	Color     colorDoc   `yaml:"color"`
	Direction [3]float64 `yaml:"direction"`
}

type skyboxDoc struct {
	Name           string `yaml:"name"`
	Right          string `yaml:"right"`
	Left           string `yaml:"left"`
	Top            string `yaml:"top"`
	Bottom         string `yaml:"bottom"`
	Back           string `yaml:"back"`
	Front          string `yaml:"front"`
	FlipVertically bool   `yaml:"flipVertically"`
}

type outputImageDoc struct {
	Filename   string `yaml:"filename"`
	Resolution [2]int `yaml:"resolution"`
}

type sceneDocument struct {
	AmbientLight        *colorBlockDoc         `yaml:"ambientLight"`
	BackgroundColor     *colorBlockDoc         `yaml:"backgroundColor"`
	BVH                 *bvhDoc                `yaml:"bvh"`
	Camera              cameraDoc              `yaml:"camera"`
	Material            []materialDoc          `yaml:"material"`
	Texture             []textureDoc           `yaml:"texture"`
	Model               []modelDoc             `yaml:"model"`
	ModelInstance       []modelInstanceDoc     `yaml:"modelInstance"`
	Sphere              []sphereDoc            `yaml:"sphere"`
	PointLight          []pointLightDoc        `yaml:"pointLight"`
	DirectionalLight    []directionalLightDoc  `yaml:"directionalLight"`
	Skybox              *skyboxDoc             `yaml:"skybox"`
	MaxDepth            int                    `yaml:"maxDepth"`
	SamplesPerAreaLight int                    `yaml:"samplesPerAreaLight"`
	SamplesPerPixel     intOrList              `yaml:"samplesPerPixel"`
	OutputImageData     outputImageDoc         `yaml:"outputImageData"`
	ToneMap             *bool                  `yaml:"toneMap"`
}

// LoadScene parses a scene document (YAML, which is a JSON superset so
// JSON-formatted scene files parse the same way) and builds a fully
// constructed, BVH-ready *scene.Scene. Resource loading (OBJ meshes, image
// textures) happens eagerly, relative to baseDir for any relative filename.
func LoadScene(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loaders: reading scene file %q", path)
	}

	var doc sceneDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "loaders: parsing scene file %q", path)
	}

	baseDir := dirOf(path)

	textures := map[string]material.ColorSource{}
	for _, td := range doc.Texture {
		tex, err := LoadTexture(joinPath(baseDir, td.Filename), td.FlipVertically)
		if err != nil {
			return nil, errors.Wrapf(err, "loaders: texture %q", td.Name)
		}
		textures[td.Name] = tex
	}

	materials := map[string]*material.Material{}
	for _, md := range doc.Material {
		materials[md.Name] = buildMaterial(md, textures)
	}

	meshes := map[string]*ObjMesh{}
	for _, mdl := range doc.Model {
		mesh, err := LoadOBJ(joinPath(baseDir, mdl.Filename))
		if err != nil {
			return nil, errors.Wrapf(err, "loaders: model %q", mdl.Name)
		}
		meshes[mdl.Name] = mesh
	}

	var shapes []geometry.Shape

	for _, sd := range doc.Sphere {
		mat := lookupMaterial(materials, sd.Material)
		center := sd.Transform.apply(core.Vec3{})
		s := sd.Transform.scaleOrUnit()
		radius := (s.X + s.Y + s.Z) / 3.0
		if radius <= 0 {
			radius = 1.0
		}
		shapes = append(shapes, geometry.NewSphere(center, radius, mat))
	}

	for _, mi := range doc.ModelInstance {
		mesh, ok := meshes[mi.Model]
		if !ok {
			return nil, errors.Errorf("loaders: modelInstance references unknown model %q", mi.Model)
		}
		mat := materials[mi.Material]
		if mat == nil {
			mat = material.NewLambertian(core.NewVec3(0.8, 0.8, 0.8))
		}

		vertices := make([]core.Vec3, len(mesh.Vertices))
		for i, v := range mesh.Vertices {
			vertices[i] = mi.Transform.apply(v)
		}

		var opts *geometry.MeshOptions
		if mesh.UVs != nil || mesh.Normals != nil {
			opts = &geometry.MeshOptions{VertexUVs: mesh.UVs}
			if mesh.Normals != nil {
				normals := make([]core.Vec3, len(mesh.Normals))
				for i, n := range mesh.Normals {
					normals[i] = mi.Transform.applyNormal(n)
				}
				opts.VertexNormals = normals
			}
		}
		instance := geometry.NewTriangleMesh(vertices, mesh.Faces, mat, opts)
		shapes = append(shapes, instance)
	}

	splitMethod, warn := parseSplitMethod(doc.BVH)
	if warn != "" {
		warnf("%s", warn)
	}
	bvh := geometry.NewBVHWithSplit(shapes, splitMethod)

	samplesPerAreaLight := doc.SamplesPerAreaLight
	if samplesPerAreaLight < 1 {
		samplesPerAreaLight = 1
	}

	var sceneLights []*lights.Light
	for _, pl := range doc.PointLight {
		sceneLights = append(sceneLights, lights.NewPointLight(vec3Of(pl.Position), pl.Color.vec3()))
	}
	for _, dl := range doc.DirectionalLight {
		sceneLights = append(sceneLights, lights.NewDirectionalLight(vec3Of(dl.Direction), dl.Color.vec3()))
	}
	sceneLights = append(sceneLights, collectAreaLights(shapes, samplesPerAreaLight)...)

	env, err := buildEnvironment(doc, baseDir)
	if err != nil {
		return nil, err
	}

	cam, jitter, warn := buildCamera(doc.Camera, doc.OutputImageData.Resolution[0], doc.OutputImageData.Resolution[1])
	if warn != "" {
		warnf("%s", warn)
	}

	maxDepth := doc.MaxDepth
	if maxDepth < 1 {
		maxDepth = 5
	}
	spp := []int(doc.SamplesPerPixel)
	if len(spp) == 0 {
		spp = []int{16}
	}

	var ambient core.Vec3
	if doc.AmbientLight != nil {
		ambient = doc.AmbientLight.Color.vec3()
	}

	toneMap := true
	if doc.ToneMap != nil {
		toneMap = *doc.ToneMap
	}

	return &scene.Scene{
		Camera:              cam,
		BVH:                 bvh,
		Lights:              sceneLights,
		Environment:         env,
		AmbientColor:        ambient,
		Width:               doc.OutputImageData.Resolution[0],
		Height:              doc.OutputImageData.Resolution[1],
		MaxDepth:            maxDepth,
		SamplesPerPixel:     spp,
		SamplesPerAreaLight: samplesPerAreaLight,
		Jitter:              jitter,
		ToneMap:             toneMap,
		OutputFile:          doc.OutputImageData.Filename,
	}, nil
}

func buildMaterial(md materialDoc, textures map[string]material.ColorSource) *material.Material {
	tr := md.Tr.vec3()
	if tr.MaxComponent() > 0 {
		m := material.NewDielectric(orDefault(md.IOR, 1.5))
		m.Emission = md.Ke.vec3()
		return m
	}

	ks := md.Ks.vec3()
	if ks.MaxComponent() > 0.5 && md.Ns > 200 {
		m := material.NewMirror(ks)
		m.Emission = md.Ke.vec3()
		return m
	}

	albedo := md.Albedo.vec3()
	m := material.NewLambertian(albedo)
	m.Emission = md.Ke.vec3()
	if md.AlbedoTexture != "" {
		m.AlbedoTexture = textures[md.AlbedoTexture]
	}
	return m
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func lookupMaterial(materials map[string]*material.Material, name string) *material.Material {
	if mat, ok := materials[name]; ok {
		return mat
	}
	return material.NewLambertian(core.NewVec3(0.8, 0.8, 0.8))
}

// collectAreaLights scans the shape list for emissive spheres and triangles
// (individually, for meshes) and wraps each in an area light, per spec.md
// §3's "area light references an emissive shape".
func collectAreaLights(shapes []geometry.Shape, nSamples int) []*lights.Light {
	var out []*lights.Light
	for _, s := range shapes {
		switch v := s.(type) {
		case *geometry.Sphere:
			if v.Material.IsEmissive() {
				out = append(out, lights.NewAreaLight(v, v.Material.Emission, nSamples))
			}
		case *geometry.TriangleMesh:
			for _, tri := range v.Triangles() {
				t := tri.(*geometry.Triangle)
				if t.Material.IsEmissive() {
					out = append(out, lights.NewAreaLight(t, t.Material.Emission, nSamples))
				}
			}
		}
	}
	return out
}

func parseSplitMethod(doc *bvhDoc) (geometry.SplitMethod, string) {
	if doc == nil || doc.SplitMethod == "" {
		return geometry.SplitSAH, ""
	}
	switch strings.ToLower(doc.SplitMethod) {
	case "middle":
		return geometry.SplitMiddle, ""
	case "equalcounts":
		return geometry.SplitEqualCounts, ""
	case "sah":
		return geometry.SplitSAH, ""
	default:
		return geometry.SplitSAH, fmt.Sprintf("unknown BVH.splitMethod %q, falling back to SAH", doc.SplitMethod)
	}
}

// buildCamera derives the camera's lookAt direction and up vector from
// rotation degrees, rotating the (0,0,-1) view and (0,1,0) up vectors by
// pitch about X first and then by yaw about Y.
func buildCamera(cd cameraDoc, width, height int) (*scene.Camera, bool, string) {
	pos := vec3Of(cd.Position)
	pitch, yaw := degToRad(cd.Rotation[0]), degToRad(cd.Rotation[1])

	view := rotateY(rotateX(core.NewVec3(0, 0, -1), pitch), yaw)
	up := rotateY(rotateX(core.NewVec3(0, 1, 0), pitch), yaw)

	vfov := degToRad(orDefault(cd.Vfov, 60))

	jitter, warn := parseAntialiasing(cd.Antialiasing)

	cam := scene.NewCameraAspect(pos, pos.Add(view), up, vfov, cd.AspectRatio, width, height, cd.Exposure, cd.Gamma)
	return cam, jitter, warn
}

func parseAntialiasing(mode string) (bool, string) {
	switch strings.ToLower(mode) {
	case "", "jitter":
		return true, ""
	case "none":
		return false, ""
	default:
		return false, fmt.Sprintf("unknown antialiasing algorithm %q, falling back to NONE", mode)
	}
}

func buildEnvironment(doc sceneDocument, baseDir string) (scene.Environment, error) {
	if doc.Skybox != nil {
		// Indexed to match scene.CubeFace: +X,-X,+Y,-Y,+Z,-Z. The camera looks
		// down -Z by default, so "front" is the -Z face and "back" is +Z.
		faceNames := [6]string{doc.Skybox.Right, doc.Skybox.Left, doc.Skybox.Top, doc.Skybox.Bottom, doc.Skybox.Back, doc.Skybox.Front}
		var faces [6]material.ColorSource
		for i, name := range faceNames {
			tex, err := LoadTexture(joinPath(baseDir, name), doc.Skybox.FlipVertically)
			if err != nil {
				return scene.Environment{}, errors.Wrapf(err, "loaders: skybox face %d", i)
			}
			faces[i] = tex
		}
		return scene.NewSkyboxEnvironment(faces), nil
	}
	if doc.BackgroundColor != nil {
		return scene.NewSolidEnvironment(doc.BackgroundColor.Color.vec3()), nil
	}
	return scene.NewSolidEnvironment(core.Vec3{}), nil
}

func rotateX(v core.Vec3, rad float64) core.Vec3 {
	s, c := math.Sin(rad), math.Cos(rad)
	return core.NewVec3(v.X, v.Y*c-v.Z*s, v.Y*s+v.Z*c)
}

func rotateY(v core.Vec3, rad float64) core.Vec3 {
	s, c := math.Sin(rad), math.Cos(rad)
	return core.NewVec3(v.X*c+v.Z*s, v.Y, -v.X*s+v.Z*c)
}

func rotateZ(v core.Vec3, rad float64) core.Vec3 {
	s, c := math.Sin(rad), math.Cos(rad)
	return core.NewVec3(v.X*c-v.Y*s, v.X*s+v.Y*c, v.Z)
}

func degToRad(d float64) float64 { return d * math.Pi / 180.0 }

func vec3Of(a [3]float64) core.Vec3 { return core.NewVec3(a[0], a[1], a[2]) }

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func joinPath(dir, name string) string {
	if name == "" || dir == "" || dir == "." {
		return name
	}
	if name[0] == '/' {
		return name
	}
	return dir + "/" + name
}

func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
