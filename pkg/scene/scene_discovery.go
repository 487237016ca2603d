package scene

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScene is returned by Build for names that are not registered
var ErrUnknownScene = errors.New("scene: unknown scene")

// SceneInfo describes a built-in scene
type SceneInfo struct {
	Name        string
	Description string
	Primitives  int
	Lights      int // Area lights plus point lights
}

type builtin struct {
	description string
	build       func() (*Scene, error)
}

func wrap(build func() *Scene) func() (*Scene, error) {
	return func() (*Scene, error) { return build(), nil }
}

var builtins = map[string]builtin{
	"cornell": {
		description: "Cornell box with two blocks and a glossy sphere",
		build:       wrap(NewCornellScene),
	},
	"spheres": {
		description: "Grid of spheres with varied materials under a sphere light",
		build:       wrap(func() *Scene { return NewSphereGridScene(10) }),
	},
	"furnace": {
		description: "Diffuse sphere in a uniform sky",
		build:       wrap(func() *Scene { return NewFurnaceScene(0.5) }),
	},
	"mesh": {
		description: "Height-field terrain and tetrahedron triangle meshes",
		build:       func() (*Scene, error) { return NewTriangleMeshScene(64) },
	},
	"textures": {
		description: "Mipmapped textures and a bump mapped sphere",
		build:       wrap(NewTextureScene),
	},
}

// Names returns the names of the built-in scenes in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the built-in scene with the given name
func Build(name string) (*Scene, error) {
	entry, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}

	s, err := entry.build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scene %q: %w", name, err)
	}
	return s, nil
}

// ListScenes builds every built-in scene and describes it
func ListScenes() ([]SceneInfo, error) {
	var infos []SceneInfo
	for _, name := range Names() {
		s, err := Build(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, SceneInfo{
			Name:        name,
			Description: builtins[name].description,
			Primitives:  len(s.Primitives),
			Lights:      len(s.AreaLights) + len(s.PointLights),
		})
	}
	return infos, nil
}
