package material

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Glass reflects or refracts according to Schlick's Fresnel approximation.
// A roughness map frosts the surface by perturbing the chosen direction.
type Glass struct {
	noEmission
	IOR          float64
	RoughnessMap TextureRef
}

// NewGlass creates a glass material
func NewGlass(ior float64, roughnessMap TextureRef) *Glass {
	return &Glass{IOR: ior, RoughnessMap: roughnessMap}
}

// Evaluate returns white; clear glass does not absorb
func (g *Glass) Evaluate(*core.SurfaceInteraction, Textures) core.Vec3 {
	return core.NewVec3(1, 1, 1)
}

// ScatterRay chooses between reflection and refraction. The normal is
// expected to face the incoming ray; FrontFace tells entering from exiting.
func (g *Glass) ScatterRay(si *core.SurfaceInteraction, direction core.Vec3, sampler core.Sampler, textures Textures) (ScatterResult, bool) {
	unit := direction.Normalize()
	ratio := g.IOR
	if si.FrontFace {
		ratio = 1.0 / g.IOR
	}

	cosTheta := math.Min(math.Abs(unit.Dot(si.Normal)), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	var result ScatterResult
	if ratio*sinTheta > 1.0 || Reflectance(cosTheta, ratio) > sampler.Get1D() {
		result.Direction = unit.Reflect(si.Normal)
	} else {
		result.Direction = refract(unit, si.Normal, ratio)
	}

	roughness := 0.0
	if g.RoughnessMap != NoTexture {
		roughness = textures.Value(g.RoughnessMap, si)
	}
	if sampler.Get1D() < roughness {
		result.HasPdf = true
		result.Direction = result.Direction.Add(core.SampleCosineHemisphere(result.Direction.Normalize(), sampler.Get2D())).Normalize()
	}
	return result, true
}

// Pdf is the cosine density about the normal on either side of the surface
func (g *Glass) Pdf(direction, normal core.Vec3) float64 {
	return math.Abs(direction.Normalize().Dot(normal)) / math.Pi
}

// Reflectance is Schlick's approximation of the Fresnel reflectance
func Reflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}

// refract bends unit direction uv through a surface with normal n facing uv
func refract(uv, n core.Vec3, etaiOverEtat float64) core.Vec3 {
	cosTheta := math.Min(uv.Negate().Dot(n), 1.0)
	rOutPerp := uv.Add(n.Multiply(cosTheta)).Multiply(etaiOverEtat)
	rOutParallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel)
}

func cosinePdf(direction, normal core.Vec3) float64 {
	return math.Max(0, direction.Normalize().Dot(normal)/math.Pi)
}
