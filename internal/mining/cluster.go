package mining

import (
	"math"
	"sort"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

const (
	maxIterations   = 100
	termsPerCluster = 5
)

// tfidf weights each document's term counts by smoothed inverse document
// frequency, ln((1+n)/(1+df))+1, and normalizes every vector to unit length.
func tfidf(docs [][]string) ([][]float64, []string) {
	index := make(map[string]int)
	var vocab []string
	df := make(map[int]int)
	for _, doc := range docs {
		seen := make(map[int]bool)
		for _, term := range doc {
			id, ok := index[term]
			if !ok {
				id = len(vocab)
				index[term] = id
				vocab = append(vocab, term)
			}
			if !seen[id] {
				seen[id] = true
				df[id]++
			}
		}
	}

	n := float64(len(docs))
	vecs := make([][]float64, len(docs))
	for i, doc := range docs {
		v := make([]float64, len(vocab))
		for _, term := range doc {
			v[index[term]]++
		}
		var norm float64
		for id, tf := range v {
			if tf == 0 {
				continue
			}
			v[id] = tf * (math.Log((1+n)/(1+float64(df[id]))) + 1)
			norm += v[id] * v[id]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for id := range v {
				v[id] /= norm
			}
		}
		vecs[i] = v
	}
	return vecs, vocab
}

func distance(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

// kmeans groups vecs into k clusters. Seeds are chosen farthest-first from
// the first vector so the result is deterministic.
func kmeans(vecs [][]float64, k int) ([]int, [][]float64) {
	k = min(k, len(vecs))

	centroids := [][]float64{append([]float64(nil), vecs[0]...)}
	for len(centroids) < k {
		best, bestDist := 0, -1.0
		for i, v := range vecs {
			nearest := math.Inf(1)
			for _, c := range centroids {
				nearest = min(nearest, distance(v, c))
			}
			if nearest > bestDist {
				best, bestDist = i, nearest
			}
		}
		centroids = append(centroids, append([]float64(nil), vecs[best]...))
	}

	labels := make([]int, len(vecs))
	for i := range labels {
		labels[i] = -1
	}
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, v := range vecs {
			label, nearest := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := distance(v, centroid); d < nearest {
					label, nearest = c, d
				}
			}
			if labels[i] != label {
				labels[i] = label
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := range centroids {
			sum := make([]float64, len(centroids[c]))
			members := 0
			for i, v := range vecs {
				if labels[i] != c {
					continue
				}
				members++
				for j := range v {
					sum[j] += v[j]
				}
			}
			// an emptied cluster keeps its previous centroid
			if members == 0 {
				continue
			}
			for j := range sum {
				sum[j] /= float64(members)
			}
			centroids[c] = sum
		}
	}
	return labels, centroids
}

func cluster(docs [][]string, reviews []types.Review, k int) []Cluster {
	vecs, vocab := tfidf(docs)
	labels, centroids := kmeans(vecs, k)

	clusters := make([]Cluster, len(centroids))
	for c, centroid := range centroids {
		clusters[c] = Cluster{ID: c, TopTerms: topWeighted(centroid, vocab, termsPerCluster)}
	}
	for i, label := range labels {
		clusters[label].Size++
		clusters[label].Titles = append(clusters[label].Titles, reviews[i].Title)
	}
	return clusters
}

func topWeighted(weights []float64, vocab []string, n int) []string {
	ids := make([]int, 0, len(weights))
	for id, w := range weights {
		if w > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if weights[ids[i]] != weights[ids[j]] {
			return weights[ids[i]] > weights[ids[j]]
		}
		return vocab[ids[i]] < vocab[ids[j]]
	})
	if len(ids) > n {
		ids = ids[:n]
	}

	terms := make([]string, len(ids))
	for i, id := range ids {
		terms[i] = vocab[id]
	}
	return terms
}
