package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
)

const formatRandomForest = "random_forest"

var (
	// ErrInvalidArtifact is returned when a model file cannot be used
	ErrInvalidArtifact = errors.New("invalid model artifact")
	// ErrFeatureCount is returned when a vector has the wrong width
	ErrFeatureCount = errors.New("feature count mismatch")
)

// Node is one node of a fitted decision tree. Leaves have Left == -1.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) isLeaf() bool {
	return n.Left == -1
}

// Tree is a fitted decision tree, root at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Artifact is the on-disk form of a fitted random forest
type Artifact struct {
	Format       string    `json:"format"`
	NFeatures    int       `json:"n_features"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	Classes      []float64 `json:"classes"`
	Trees        []Tree    `json:"trees"`
}

// Forest is a loaded random forest classifier. It is read-only after Load.
type Forest struct {
	nFeatures    int
	featureNames []string
	classes      []float64
	trees        []Tree
	// leaf distributions normalized to sum to 1, indexed [tree][node]
	leafProba [][][]float64
}

// Load reads and validates a forest artifact from path
func Load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model %s: %w: %v", path, ErrInvalidArtifact, err)
	}

	f, err := New(a)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return f, nil
}

// New builds a forest from a decoded artifact
func New(a Artifact) (*Forest, error) {
	if a.Format != formatRandomForest {
		return nil, invalid("format %q, want %q", a.Format, formatRandomForest)
	}
	if a.NFeatures <= 0 {
		return nil, invalid("n_features must be positive, got %d", a.NFeatures)
	}
	if len(a.FeatureNames) > 0 && len(a.FeatureNames) != a.NFeatures {
		return nil, invalid("%d feature names for %d features", len(a.FeatureNames), a.NFeatures)
	}
	if len(a.Classes) == 0 {
		return nil, invalid("no classes")
	}
	if len(a.Trees) == 0 {
		return nil, invalid("no trees")
	}

	leafProba := make([][][]float64, len(a.Trees))
	for t, tree := range a.Trees {
		probs, err := checkTree(tree, a.NFeatures, len(a.Classes))
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", t, err)
		}
		leafProba[t] = probs
	}

	return &Forest{
		nFeatures:    a.NFeatures,
		featureNames: a.FeatureNames,
		classes:      a.Classes,
		trees:        a.Trees,
		leafProba:    leafProba,
	}, nil
}

func checkTree(tree Tree, nFeatures, nClasses int) ([][]float64, error) {
	if len(tree.Nodes) == 0 {
		return nil, invalid("empty tree")
	}

	probs := make([][]float64, len(tree.Nodes))
	for i, n := range tree.Nodes {
		if n.isLeaf() {
			if len(n.Value) != nClasses {
				return nil, invalid("node %d: %d leaf values for %d classes", i, len(n.Value), nClasses)
			}
			if floats.Min(n.Value) < 0 {
				return nil, invalid("node %d: negative leaf value", i)
			}
			sum := floats.Sum(n.Value)
			if sum <= 0 {
				return nil, invalid("node %d: leaf values sum to %v", i, sum)
			}
			p := make([]float64, nClasses)
			floats.ScaleTo(p, 1/sum, n.Value)
			probs[i] = p
			continue
		}

		if n.Feature < 0 || n.Feature >= nFeatures {
			return nil, invalid("node %d: feature %d out of range", i, n.Feature)
		}
		// children always follow their parent, so traversal terminates
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(tree.Nodes) {
				return nil, invalid("node %d: child %d out of range", i, child)
			}
		}
	}
	return probs, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArtifact, fmt.Sprintf(format, args...))
}

// NumFeatures returns the vector width the forest expects
func (f *Forest) NumFeatures() int {
	return f.nFeatures
}

// NumTrees returns the number of trees in the ensemble
func (f *Forest) NumTrees() int {
	return len(f.trees)
}

// FeatureNames returns the column names recorded with the artifact, if any
func (f *Forest) FeatureNames() []string {
	return f.featureNames
}

// PredictProba averages the leaf class distributions of every tree
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.nFeatures {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(x), f.nFeatures)
	}

	proba := make([]float64, len(f.classes))
	for t, tree := range f.trees {
		floats.Add(proba, f.leafProba[t][leaf(tree, x)])
	}
	floats.Scale(1/float64(len(f.trees)), proba)
	return proba, nil
}

// Predict returns the class label with the highest averaged probability.
// Ties go to the class listed first.
func (f *Forest) Predict(x []float64) (float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return f.classes[floats.MaxIdx(proba)], nil
}

func leaf(tree Tree, x []float64) int {
	i := 0
	for {
		n := tree.Nodes[i]
		if n.isLeaf() {
			return i
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
