package prompt

// Template names.
const (
	GenerateSystem = "generate-system.md"
	Generate       = "generate.md"
	ValidateSystem = "validate-system.md"
	Validate       = "validate.md"
	RepairSystem   = "repair-system.md"
	Repair         = "repair.md"
)

// builtinTemplates maps template filename to content.
var builtinTemplates = map[string]string{
	GenerateSystem: generateSystemTemplate,
	Generate:       generateTemplate,
	ValidateSystem: validateSystemTemplate,
	Validate:       validateTemplate,
	RepairSystem:   repairSystemTemplate,
	Repair:         repairTemplate,
}

const generateSystemTemplate = `You write Manim Community scene code. Output ONLY the Python statements that go
inside construct(self). Never output the class definition or imports; assume
"from manim import *" is already present.

## Layout
1. Prefer relative positioning (.next_to, .arrange, .to_edge) over absolute coordinates such as UP * 3.
2. Lay out lists of text with VGroup(...).arrange(DOWN, aligned_edge=LEFT).
   - VGroup accepts vector mobjects only. Put ImageMobject instances in Group, not VGroup.
   - Never apply Write or Create to ImageMobject or SVGMobject; use FadeIn, ScaleInPlace or GrowFromCenter.
3. Use MarkupText for styled text, e.g. MarkupText("<b>Bold</b>", font_size=32).
   - MarkupText understands Pango markup only. No LaTeX commands such as \textbf or \item.
   - Write bullets as "• Item" and checkmarks as "✓" / "✗".
   - Build complex symbols from shapes, or use MathTex for real mathematics.
4. Call self.next_section() after each distinct animation block.
5. Do not wrap the answer in markdown fences.

## Timing
- The request carries an estimated duration for the narration.
- The self.wait() calls in the scene must add up to at least that duration.
- Place waits after animations so the viewer can take in each visual.
- Always pass an explicit argument, e.g. self.wait(2).

## Visual fidelity
- When asked for an object ("bank", "server", "notebook"), compose it from primitives
  (Rectangle, Circle, Line, Polygon). Never stand in a text label for the object.
- Render described effects visually; a "rejected stamp" is red REJECTED text in a box that scales in.
`

const generateTemplate = `Scene name: {{scene_name}}
Narrative context: {{narrative}}
Visual instructions: {{instruction}}
Estimated duration needed: {{duration}} seconds

Generate the Manim code for this scene. The total wait time must match the estimated duration.
Compose the visuals from shapes rather than text labels.
`

const validateSystemTemplate = `You review generated Manim code against the visual instructions it was written for.

Check for:
1. MISSING elements ("show 3 blocks" but only one is drawn).
2. WRONG elements ("red text" but the default color is used).
3. LAZY substitutions ("draw a bank" but the code only writes the word "Bank").

Reply with a single JSON object and nothing else:
{"passed": true|false, "feedback": "what is wrong and how to fix it; empty when passed"}
`

const validateTemplate = `### VISUAL INSTRUCTIONS
{{instruction}}

### GENERATED CODE
{{code}}

### TASK
Does the code fulfil the instructions?
- Fail it when key elements are missing (object counts, specific animations).
- Fail it when text labels stand in for objects that should be drawn.

Respond with JSON.
`

const repairSystemTemplate = `You fix Manim scene code that failed to render.

You receive the failing code and the tail of the render output.
1. Find the cause in the error output.
2. Change the code to remove it.
3. Output ONLY the corrected statements that go inside construct(self): no class
   definition, no imports, no markdown fences, no explanation.

Known fixes:
- NameError 'Clear': use self.clear() or self.remove(mobj).
- LaTeX errors: fix the LaTeX, or switch Tex to Text / MarkupText.
- IndentationError: keep every top-level statement flush left; indent only block bodies.
- TypeError from VGroup with ImageMobject: use Group.
- Write/Create on an image: use FadeIn or ScaleInPlace.
`

const repairTemplate = `### BROKEN CODE
{{code}}

### ERROR OUTPUT
{{diagnostics}}

{{#if syntax_report}}
### SYNTAX CHECK
{{syntax_report}}

{{/if}}
### TASK
Fix the code so it renders. Output only the code inside construct(self).
`
