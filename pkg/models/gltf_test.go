package models

import (
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/anamorph/pkg/math3d"
)

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader == nil {
		t.Fatal("NewGLTFLoader returned nil")
	}
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
}

// quadMesh is a 2x2 vertex grid with two triangles, like a 1-cell anamorphic mesh.
func quadMesh() *Mesh {
	m := NewMesh("quad")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(-1, -1, 5), UV: math3d.V2(0, 0)},
		{Position: math3d.V3(1, -1, 5), UV: math3d.V2(1, 0)},
		{Position: math3d.V3(-1, 1, 5), UV: math3d.V2(0, 1)},
		{Position: math3d.V3(1, 1, 5), UV: math3d.V2(1, 1)},
	}
	m.Faces = []Face{
		{V: [3]int{0, 2, 1}, Material: -1},
		{V: [3]int{2, 3, 1}, Material: -1},
	}
	m.CalculateSmoothNormals()
	m.UpdateBounds()
	return m
}

func TestWriteGLTFRoundTrip(t *testing.T) {
	for _, ext := range []string{".glb", ".gltf"} {
		t.Run(ext, func(t *testing.T) {
			src := quadMesh()
			path := filepath.Join(t.TempDir(), "quad"+ext)

			if err := WriteGLTF(path, src); err != nil {
				t.Fatalf("WriteGLTF() error = %v", err)
			}
			got, err := LoadGLB(path)
			if err != nil {
				t.Fatalf("LoadGLB() error = %v", err)
			}

			if got.VertexCount() != src.VertexCount() {
				t.Fatalf("vertices = %d, want %d", got.VertexCount(), src.VertexCount())
			}
			if got.TriangleCount() != src.TriangleCount() {
				t.Fatalf("triangles = %d, want %d", got.TriangleCount(), src.TriangleCount())
			}
			for i := range src.Vertices {
				want, have := src.Vertices[i], got.Vertices[i]
				if !have.Position.ApproxEqual(want.Position, 1e-6) {
					t.Errorf("vertex %d position = %v, want %v", i, have.Position, want.Position)
				}
				if math.Abs(have.UV.X-want.UV.X) > 1e-6 || math.Abs(have.UV.Y-want.UV.Y) > 1e-6 {
					t.Errorf("vertex %d uv = %v, want %v", i, have.UV, want.UV)
				}
			}
			for i := range src.Faces {
				if got.Faces[i].V != src.Faces[i].V {
					t.Errorf("face %d = %v, want %v", i, got.Faces[i].V, src.Faces[i].V)
				}
			}
		})
	}
}

func TestEncodeGLTFWithTexture(t *testing.T) {
	m := quadMesh()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	m.Materials = []Material{{Name: "image", BaseMap: img, DoubleSided: true}}

	doc, err := EncodeGLTF(m)
	if err != nil {
		t.Fatalf("EncodeGLTF() error = %v", err)
	}
	if len(doc.Images) != 1 || len(doc.Textures) != 1 || len(doc.Materials) != 1 {
		t.Fatalf("images/textures/materials = %d/%d/%d, want 1/1/1",
			len(doc.Images), len(doc.Textures), len(doc.Materials))
	}
	if !doc.Materials[0].DoubleSided {
		t.Error("material should be double sided")
	}
}

func TestEncodeGLTFEmpty(t *testing.T) {
	if _, err := EncodeGLTF(NewMesh("empty")); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("EncodeGLTF(empty) error = %v, want ErrEmptyMesh", err)
	}
}

func TestUpdateBoundsIgnoresUnusedVertices(t *testing.T) {
	m := quadMesh()
	m.Vertices = append(m.Vertices, MeshVertex{Position: math3d.V3(-100, -100, -100)})
	m.UpdateBounds()
	if !m.BoundsMin.ApproxEqual(math3d.V3(-1, -1, 5), 1e-12) {
		t.Errorf("BoundsMin = %v, want (-1,-1,5)", m.BoundsMin)
	}
}

func TestCalculateSmoothNormals(t *testing.T) {
	m := quadMesh()
	for i, v := range m.Vertices {
		if math.Abs(math.Abs(v.Normal.Z)-1) > 1e-12 {
			t.Errorf("vertex %d normal = %v, want ±Z", i, v.Normal)
		}
	}
}

func TestDecodeAppliesNodeTransforms(t *testing.T) {
	s := math.Sqrt(0.5)
	tests := []struct {
		name   string
		setup  func(n *gltf.Node) *gltf.Node
		wantLo math3d.Vec3
		wantHi math3d.Vec3
	}{
		{
			name:   "identity",
			setup:  func(n *gltf.Node) *gltf.Node { return n },
			wantLo: math3d.V3(-1, -1, 5), wantHi: math3d.V3(1, 1, 5),
		},
		{
			name: "translated and scaled",
			setup: func(n *gltf.Node) *gltf.Node {
				n.Translation = [3]float64{0, 0, 10}
				n.Scale = [3]float64{2, 1, 1}
				return n
			},
			wantLo: math3d.V3(-2, -1, 15), wantHi: math3d.V3(2, 1, 15),
		},
		{
			name: "rotated 90 degrees about X",
			setup: func(n *gltf.Node) *gltf.Node {
				n.Rotation = [4]float64{s, 0, 0, s}
				return n
			},
			wantLo: math3d.V3(-1, -5, -1), wantHi: math3d.V3(1, -5, 1),
		},
		{
			name: "child of a translated parent",
			setup: func(n *gltf.Node) *gltf.Node {
				return &gltf.Node{Name: "parent", Translation: [3]float64{100, 0, 0}}
			},
			wantLo: math3d.V3(99, -1, 5), wantHi: math3d.V3(101, 1, 5),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := EncodeGLTF(quadMesh())
			if err != nil {
				t.Fatalf("EncodeGLTF() error = %v", err)
			}
			if root := tc.setup(doc.Nodes[0]); root != doc.Nodes[0] {
				root.Children = []int{0}
				doc.Nodes = append(doc.Nodes, root)
				doc.Scenes[0].Nodes = []int{len(doc.Nodes) - 1}
			}

			m, err := NewGLTFLoader().Decode(doc)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !m.BoundsMin.ApproxEqual(tc.wantLo, 1e-6) || !m.BoundsMax.ApproxEqual(tc.wantHi, 1e-6) {
				t.Errorf("bounds = %v..%v, want %v..%v", m.BoundsMin, m.BoundsMax, tc.wantLo, tc.wantHi)
			}
		})
	}
}

func TestDecodeRejectsBadNodeIndex(t *testing.T) {
	doc, err := EncodeGLTF(quadMesh())
	if err != nil {
		t.Fatalf("EncodeGLTF() error = %v", err)
	}
	doc.Scenes[0].Nodes = []int{7}
	if _, err := NewGLTFLoader().Decode(doc); err == nil {
		t.Error("Decode() should fail on a missing node")
	}
}
