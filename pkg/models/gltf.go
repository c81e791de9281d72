package models

import (
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/anamorph/pkg/math3d"
)

// GLTFLoader reads lens models from glTF 2.0 files.
type GLTFLoader struct {
	// CalculateNormals fills in smooth normals when the file has none.
	CalculateNormals bool
}

func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{CalculateNormals: true}
}

// LoadGLB loads a .gltf or .glb file with the default loader.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load reads path and flattens its triangles into one mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	m, err := l.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Name = filepath.Base(path)
	return m, nil
}

// Decode flattens the default scene of doc into one mesh in scene space,
// applying each node's transform. A document without scenes contributes
// every mesh untransformed. Winding is kept as stored.
func (l *GLTFLoader) Decode(doc *gltf.Document) (*Mesh, error) {
	out := NewMesh("")

	scene := -1
	switch {
	case doc.Scene != nil:
		scene = *doc.Scene
	case len(doc.Scenes) > 0:
		scene = 0
	}

	if scene < 0 || scene >= len(doc.Scenes) {
		for i := range doc.Meshes {
			if err := l.appendMesh(out, doc, i, math3d.Identity()); err != nil {
				return nil, err
			}
		}
	} else {
		for _, n := range doc.Scenes[scene].Nodes {
			if err := l.walk(out, doc, n, math3d.Identity(), 0); err != nil {
				return nil, err
			}
		}
	}

	if l.CalculateNormals && !hasNormals(out) {
		out.CalculateSmoothNormals()
	}
	out.UpdateBounds()
	return out, nil
}

// maxNodeDepth bounds the walk over malformed files with cyclic children.
const maxNodeDepth = 64

func (l *GLTFLoader) walk(out *Mesh, doc *gltf.Document, idx int, parent math3d.Mat4, depth int) error {
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d", idx, maxNodeDepth)
	}

	node := doc.Nodes[idx]
	world := parent.Mul(nodeMatrix(node))
	if node.Mesh != nil {
		if err := l.appendMesh(out, doc, *node.Mesh, world); err != nil {
			return err
		}
	}
	for _, c := range node.Children {
		if err := l.walk(out, doc, c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix is the node's local transform, from its matrix when set and
// from translation, rotation and scale otherwise.
func nodeMatrix(n *gltf.Node) math3d.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return math3d.Mat4(m)
	}
	t, r, s := n.TranslationOrDefault(), n.RotationOrDefault(), n.ScaleOrDefault()
	return math3d.Translate(math3d.V3(t[0], t[1], t[2])).
		Mul(math3d.RotateQuat(r[0], r[1], r[2], r[3])).
		Mul(math3d.Scale(math3d.V3(s[0], s[1], s[2])))
}

// appendMesh adds the triangle primitives of mesh idx, placed by world.
func (l *GLTFLoader) appendMesh(out *Mesh, doc *gltf.Document, idx int, world math3d.Mat4) error {
	if idx < 0 || idx >= len(doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", idx)
	}
	m := doc.Meshes[idx]
	normalMat := world.Inverse().Transpose()

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("mesh %q: read positions: %w", m.Name, err)
		}

		var normals [][3]float32
		if i, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[i], nil); err != nil {
				return fmt.Errorf("mesh %q: read normals: %w", m.Name, err)
			}
		}
		var uvs [][2]float32
		if i, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[i], nil); err != nil {
				return fmt.Errorf("mesh %q: read uvs: %w", m.Name, err)
			}
		}

		base := len(out.Vertices)
		for i, p := range positions {
			v := MeshVertex{Position: world.MulVec3(vec3(p))}
			if i < len(normals) {
				v.Normal = normalMat.MulVec3Dir(vec3(normals[i])).Normalize()
			}
			if i < len(uvs) {
				// glTF puts the UV origin at the top-left.
				v.UV = math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1]))
			}
			out.Vertices = append(out.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
				return fmt.Errorf("mesh %q: read indices: %w", m.Name, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{Material: -1}
			for k := range 3 {
				vi := int(indices[i+k])
				if vi >= len(positions) {
					return fmt.Errorf("mesh %q: index %d out of range (%d vertices)", m.Name, vi, len(positions))
				}
				f.V[k] = base + vi
			}
			out.Faces = append(out.Faces, f)
		}
	}
	return nil
}

func hasNormals(m *Mesh) bool {
	for _, v := range m.Vertices {
		if v.Normal.LenSq() > 1e-6 {
			return true
		}
	}
	return false
}

func vec3(f [3]float32) math3d.Vec3 {
	return math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
}
