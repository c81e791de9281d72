package models

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrEmptyMesh is returned when exporting a mesh without triangles.
var ErrEmptyMesh = errors.New("mesh has no triangles")

// WriteGLTF saves m as glTF 2.0. A .glb extension writes the binary
// container; anything else writes JSON with the buffer embedded.
func WriteGLTF(path string, m *Mesh) error {
	doc, err := EncodeGLTF(m)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".glb") {
		if err := gltf.SaveBinary(doc, path); err != nil {
			return fmt.Errorf("save glb: %w", err)
		}
		return nil
	}

	for _, b := range doc.Buffers {
		b.EmbeddedResource()
	}
	if err := gltf.Save(doc, path); err != nil {
		return fmt.Errorf("save gltf: %w", err)
	}
	return nil
}

// EncodeGLTF builds a single-node glTF document holding m with positions,
// normals, texture coordinates, indices and, when the first material has a
// BaseMap, an embedded PNG base color texture.
func EncodeGLTF(m *Mesh) (*gltf.Document, error) {
	if len(m.Faces) == 0 {
		return nil, ErrEmptyMesh
	}

	positions := make([][3]float32, len(m.Vertices))
	normals := make([][3]float32, len(m.Vertices))
	uvs := make([][2]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = [3]float32{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
		normals[i] = [3]float32{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
		// Back to glTF's top-left UV origin.
		uvs[i] = [2]float32{float32(v.UV.X), float32(1 - v.UV.Y)}
	}

	indices := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}

	doc := gltf.NewDocument()
	prim := &gltf.Primitive{
		Mode:    gltf.PrimitiveTriangles,
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: map[string]int{
			gltf.POSITION:   modeler.WritePosition(doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
		},
	}

	if len(m.Materials) > 0 {
		mat, err := encodeMaterial(doc, &m.Materials[0])
		if err != nil {
			return nil, err
		}
		prim.Material = gltf.Index(mat)
	}

	name := m.Name
	if name == "" {
		name = "anamorph"
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)

	return doc, nil
}

func encodeMaterial(doc *gltf.Document, mat *Material) (int, error) {
	color := mat.BaseColor
	if color == ([4]float64{}) {
		color = [4]float64{1, 1, 1, 1}
	}
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &color,
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}

	if mat.BaseMap != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, mat.BaseMap); err != nil {
			return 0, fmt.Errorf("encode texture: %w", err)
		}
		img, err := modeler.WriteImage(doc, mat.Name, "image/png", &buf)
		if err != nil {
			return 0, fmt.Errorf("write texture: %w", err)
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(img)})
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: len(doc.Textures) - 1}
	}

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:                 mat.Name,
		DoubleSided:          mat.DoubleSided,
		PBRMetallicRoughness: pbr,
	})
	return len(doc.Materials) - 1, nil
}
