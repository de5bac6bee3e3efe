package mcpserver

// DocumentFormatContract describes the document model and the Markdown
// conventions LLM consumers should follow when creating documents.
const DocumentFormatContract = `# Scribe Document Format

Documents are trees of blocks. Markdown input is converted into that tree;
anything the tree cannot represent is dropped.

## Blocks

| Markdown                         | Block                                   |
|----------------------------------|-----------------------------------------|
| ` + "`# `" + `, ` + "`## `" + `, ` + "`### `" + `             | heading, levels 1-3 (deeper levels become 3) |
| plain paragraph                  | paragraph                               |
| ` + "`> `" + `                             | quote                                   |
| ` + "`- `" + ` / ` + "`1. `" + `                    | bullet / numbered list                  |
| fenced code with a language tag  | code block (highlighted on render)      |
| ` + "`---`" + `                            | horizontal separator                    |
| GFM pipe table                   | table; first row is the header row      |
| ` + "`![alt](src)`" + ` on its own line    | image                                   |
| a YouTube link on its own line   | embedded video                          |

## Inline

- ` + "`**bold**`" + `, ` + "`*italic*`" + `, ` + "`~~strikethrough~~`" + ` and ` + "`` `code` ``" + `.
- Links: ` + "`[text](https://example.com)`" + `. ` + "`javascript:`" + ` URLs are rejected.
- Underline, colours, fonts and sizes have no Markdown form. Use the HTML
  format (` + "`format: html`" + `) when they matter.

## Rules

1. Tables must be rectangular. Every row needs the same number of cells.
2. Lists nest by indentation; list items hold text only.
3. Encoding is UTF-8.
4. The title defaults to the first line of text when none is given.

## Example

` + "```" + `markdown
# Release notes

Version **2.1** ships the new table editor.

| Area   | Change          |
|--------|-----------------|
| Tables | insert/remove   |
| Images | alignment       |

` + "```go" + `
fmt.Println("hello")
` + "```" + `
` + "```" + `
`
